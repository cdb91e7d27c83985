package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
)

type MockParser struct {
	mock.Mock
}

func (m *MockParser) SmartParse(ctx context.Context, text string, users []string) (ai.ParsedTask, error) {
	args := m.Called(ctx, text, users)
	return args.Get(0).(ai.ParsedTask), args.Error(1)
}

func (m *MockParser) ParseFile(ctx context.Context, f ai.File, users []string) (ai.ParsedTask, error) {
	args := m.Called(ctx, f, users)
	return args.Get(0).(ai.ParsedTask), args.Error(1)
}

func (m *MockParser) EnhanceTask(ctx context.Context, text string, users []string) (ai.ParsedTask, error) {
	args := m.Called(ctx, text, users)
	return args.Get(0).(ai.ParsedTask), args.Error(1)
}

func (m *MockParser) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	args := m.Called(ctx, audio, fileName)
	return args.String(0), args.Error(1)
}

// aiRouter mounts only the AI routes so these tests need no database.
func aiRouter(parser ai.Parser, perMinute int) http.Handler {
	h := NewAIHandler(parser, zap.NewNop())
	mw := RateLimit(perMinute)
	mux := http.NewServeMux()
	mux.Handle("/api/ai/smart-parse", h.Available(mw(http.HandlerFunc(h.SmartParse))))
	mux.Handle("/api/ai/enhance-task", h.Available(mw(http.HandlerFunc(h.EnhanceTask))))
	mux.Handle("/api/ai/parse-file", h.Available(mw(http.HandlerFunc(h.ParseFile))))
	mux.Handle("/api/ai/transcribe", h.Available(mw(http.HandlerFunc(h.Transcribe))))
	return mux
}

func postJSON(h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var parsed = ai.ParsedTask{MainTask: ai.MainTask{Text: "Buy milk", Priority: "high"}}

func TestAIHandler_SmartParse(t *testing.T) {
	tests := []struct {
		name     string
		body     interface{}
		setup    func(*MockParser)
		wantCode int
	}{
		{
			name: "success",
			body: textRequest{Text: "buy milk", Users: []string{"alice"}},
			setup: func(m *MockParser) {
				m.On("SmartParse", mock.Anything, "buy milk", []string{"alice"}).Return(parsed, nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "empty text",
			body:     textRequest{Text: "   "},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty body",
			body:     nil,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "upstream failure",
			body: textRequest{Text: "buy milk"},
			setup: func(m *MockParser) {
				m.On("SmartParse", mock.Anything, "buy milk", []string(nil)).Return(ai.ParsedTask{}, errors.New("upstream down"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockParser)
			if tt.setup != nil {
				tt.setup(m)
			}
			var w *httptest.ResponseRecorder
			if tt.body == nil {
				req := httptest.NewRequest(http.MethodPost, "/api/ai/smart-parse", nil)
				w = httptest.NewRecorder()
				aiRouter(m, 0).ServeHTTP(w, req)
			} else {
				w = postJSON(aiRouter(m, 0), "/api/ai/smart-parse", tt.body)
			}

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				var got ai.ParsedTask
				field(t, w, "result", &got)
				assert.Equal(t, "Buy milk", got.MainTask.Text)
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
			m.AssertExpectations(t)
		})
	}
}

func TestAIHandler_ParseFile(t *testing.T) {
	m := new(MockParser)
	m.On("ParseFile", mock.Anything, mock.MatchedBy(func(f ai.File) bool {
		return f.MimeType == "text/plain" && string(f.Data) == "call mum"
	}), []string(nil)).Return(parsed, nil)
	h := aiRouter(m, 0)

	w := postJSON(h, "/api/ai/parse-file", fileRequest{
		FileBase64: base64.StdEncoding.EncodeToString([]byte("call mum")),
		MimeType:   "text/plain",
		FileName:   "note.txt",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(h, "/api/ai/parse-file", fileRequest{
		FileBase64: base64.StdEncoding.EncodeToString([]byte("PK\x03\x04")),
		MimeType:   "application/zip",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(h, "/api/ai/parse-file", fileRequest{FileBase64: "***", MimeType: "text/plain"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.AssertExpectations(t)
}

func TestAIHandler_ParseFilePDF(t *testing.T) {
	m := new(MockParser)
	m.On("ParseFile", mock.Anything, mock.MatchedBy(func(f ai.File) bool {
		return f.MimeType == "application/pdf" && f.Name == "plan.pdf"
	}), []string{"alice"}).Return(parsed, nil)

	w := postJSON(aiRouter(m, 0), "/api/ai/parse-file", fileRequest{
		FileBase64: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
		MimeType:   "application/pdf",
		FileName:   "plan.pdf",
		Users:      []string{"alice"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	m.AssertExpectations(t)
}

func TestAIHandler_ParseFileBodyLimit(t *testing.T) {
	m := new(MockParser)
	payload := bytes.Repeat([]byte("A"), maxFileBodyBytes)

	w := postJSON(aiRouter(m, 0), "/api/ai/parse-file", fileRequest{
		FileBase64: string(payload),
		MimeType:   "text/plain",
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	m.AssertNotCalled(t, "ParseFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestAIHandler_Transcribe(t *testing.T) {
	m := new(MockParser)
	m.On("Transcribe", mock.Anything, mock.Anything, "memo.webm").Return("buy milk", nil)
	m.On("SmartParse", mock.Anything, "buy milk", []string{"alice"}).Return(parsed, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "memo.webm")
	require.NoError(t, err)
	_, _ = part.Write([]byte("audio-bytes"))
	require.NoError(t, mw.WriteField("parse", "true"))
	require.NoError(t, mw.WriteField("users", "alice"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ai/transcribe", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	aiRouter(m, 0).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var transcript string
	field(t, w, "transcript", &transcript)
	assert.Equal(t, "buy milk", transcript)
	var got ai.ParsedTask
	field(t, w, "result", &got)
	assert.Equal(t, "Buy milk", got.MainTask.Text)
	m.AssertExpectations(t)

	req = httptest.NewRequest(http.MethodPost, "/api/ai/transcribe", bytes.NewReader(nil))
	w = httptest.NewRecorder()
	aiRouter(m, 0).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIHandler_Unavailable(t *testing.T) {
	w := postJSON(aiRouter(nil, 0), "/api/ai/enhance-task", textRequest{Text: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimit(t *testing.T) {
	m := new(MockParser)
	m.On("EnhanceTask", mock.Anything, "plan party", []string(nil)).Return(parsed, nil)
	h := aiRouter(m, 2)

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, postJSON(h, "/api/ai/enhance-task", textRequest{Text: "plan party"}).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	m.AssertNumberOfCalls(t, "EnhanceTask", 2)
}
