package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

// maxAudioBytes caps transcription uploads at the speech service's own limit.
const maxAudioBytes = 25 << 20

// maxFileBodyBytes caps the JSON body of a parse-file request, base64 payload included.
const maxFileBodyBytes = 16 << 20

type AIHandler struct {
	parser ai.Parser
	logger *zap.Logger
}

// NewAIHandler builds the AI endpoints. A nil parser makes every endpoint answer 503.
func NewAIHandler(parser ai.Parser, logger *zap.Logger) *AIHandler {
	return &AIHandler{parser: parser, logger: logger}
}

type textRequest struct {
	Text  string   `json:"text"`
	Users []string `json:"users"`
}

type fileRequest struct {
	FileBase64 string   `json:"file_base64"`
	MimeType   string   `json:"mime_type"`
	FileName   string   `json:"file_name"`
	Users      []string `json:"users"`
}

func (h *AIHandler) SmartParse(w http.ResponseWriter, r *http.Request) {
	h.text(w, r, h.parser.SmartParse)
}

func (h *AIHandler) EnhanceTask(w http.ResponseWriter, r *http.Request) {
	h.text(w, r, h.parser.EnhanceTask)
}

func (h *AIHandler) text(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, text string, users []string) (ai.ParsedTask, error)) {
	var req textRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respond.Error(w, r, http.StatusBadRequest, "text is required")
		return
	}

	result, err := fn(r.Context(), req.Text, req.Users)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"result": result})
}

func (h *AIHandler) ParseFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileBodyBytes)
	var req fileRequest
	if !decode(w, r, h.logger, &req) {
		return
	}
	if req.FileBase64 == "" || req.MimeType == "" {
		respond.Error(w, r, http.StatusBadRequest, "file_base64 and mime_type are required")
		return
	}
	f, err := ai.DecodeFile(req.FileBase64, req.MimeType, req.FileName)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := f.Kind(); err != nil {
		respond.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.parser.ParseFile(r.Context(), f, req.Users)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"result": result})
}

// Transcribe accepts a multipart "audio" file. With parse=true the transcript
// is also turned into a task.
func (h *AIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	transcript, err := h.parser.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	body := map[string]interface{}{"transcript": transcript}

	if r.FormValue("parse") == "true" && transcript != "" {
		result, err := h.parser.SmartParse(r.Context(), transcript, r.MultipartForm.Value["users"])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		body["result"] = result
	}
	respond.OK(w, r, http.StatusOK, body)
}

func (h *AIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleErrors(w, r, h.logger, err)
}

// Available rejects requests with 503 while no AI backend is configured.
func (h *AIHandler) Available(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.parser == nil {
			respond.Error(w, r, http.StatusServiceUnavailable, "AI features are not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit allows perMinute requests per minute across all callers.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				respond.Error(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
