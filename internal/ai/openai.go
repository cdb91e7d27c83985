package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/metrics"
)

// Parser turns free text, files and audio into structured tasks.
type Parser interface {
	SmartParse(ctx context.Context, text string, users []string) (ParsedTask, error)
	ParseFile(ctx context.Context, f File, users []string) (ParsedTask, error)
	EnhanceTask(ctx context.Context, text string, users []string) (ParsedTask, error)
	Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error)
}

type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
}

type OpenAIClient struct {
	client          *openai.Client
	model           string
	transcribeModel string
	logger          *zap.Logger
	now             func() time.Time
}

func NewOpenAIClient(opts Options, logger *zap.Logger) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = openai.Whisper1
	}
	logger.Info("Initializing OpenAI client", zap.String("model", opts.Model))
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(cfg),
		model:           opts.Model,
		transcribeModel: opts.TranscribeModel,
		logger:          logger,
		now:             time.Now,
	}, nil
}

func (o *OpenAIClient) SmartParse(ctx context.Context, text string, users []string) (ParsedTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedTask{}, ErrEmptyResult
	}
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	return o.complete(ctx, "smart_parse", parsePrompt(o.now(), users), msg, users)
}

func (o *OpenAIClient) EnhanceTask(ctx context.Context, text string, users []string) (ParsedTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedTask{}, ErrEmptyResult
	}
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	return o.complete(ctx, "enhance_task", enhancePrompt(o.now(), users), msg, users)
}

func (o *OpenAIClient) ParseFile(ctx context.Context, f File, users []string) (ParsedTask, error) {
	kind, err := f.Kind()
	if err != nil {
		return ParsedTask{}, err
	}

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	switch kind {
	case FileImage:
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: "Extract the task from this image."},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: f.DataURL(), Detail: openai.ImageURLDetailAuto},
			},
		}
	case FileText:
		text, err := f.Text()
		if err != nil {
			return ParsedTask{}, err
		}
		msg.Content = fmt.Sprintf("File %q:\n\n%s", f.Name, text)
	case FilePDF:
		text, err := f.PDFText()
		if err != nil {
			return ParsedTask{}, err
		}
		msg.Content = fmt.Sprintf("PDF %q:\n\n%s", f.Name, text)
	}
	return o.complete(ctx, "parse_file", parsePrompt(o.now(), users), msg, users)
}

func (o *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	start := time.Now()
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.transcribeModel,
		Reader:   audio,
		FilePath: fileName,
	})
	observe("transcribe", start, err)
	if err != nil {
		o.logger.Error("OpenAI transcription failed", zap.Error(err))
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (o *OpenAIClient) complete(ctx context.Context, endpoint, system string, user openai.ChatCompletionMessage, users []string) (ParsedTask, error) {
	start := time.Now()
	parsed, err := o.completeJSON(ctx, system, user)
	if err == nil {
		parsed, err = Sanitize(parsed, users)
	}
	observe(endpoint, start, err)
	if err != nil {
		o.logger.Error("AI request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return ParsedTask{}, err
	}
	return parsed, nil
}

func (o *OpenAIClient) completeJSON(ctx context.Context, system string, user openai.ChatCompletionMessage) (ParsedTask, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			user,
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return ParsedTask{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ParsedTask{}, fmt.Errorf("OpenAI returned no choices")
	}

	var parsed ParsedTask
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ParsedTask{}, fmt.Errorf("decode model output: %w", err)
	}
	return parsed, nil
}

func observe(endpoint string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AIRequestsTotal.WithLabelValues(endpoint, result).Inc()
	metrics.AIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
