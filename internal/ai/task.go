package ai

import (
	"errors"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/civil"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const (
	MaxTaskText    = 500
	MaxSubtaskText = 200
	MaxSummaryText = 5000
	MaxSubtasks    = 10
	MinEstimate    = 5
	MaxEstimate    = 480
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyResult     = errors.New("model returned no task")
)

type MainTask struct {
	Text       string         `json:"text"`
	Priority   model.Priority `json:"priority"`
	DueDate    string         `json:"due_date,omitempty"`
	AssignedTo string         `json:"assigned_to,omitempty"`
}

type ParsedSubtask struct {
	Text             string         `json:"text"`
	Priority         model.Priority `json:"priority"`
	EstimatedMinutes *int           `json:"estimated_minutes,omitempty"`
}

// ParsedTask is the structured result of turning free text into a task.
type ParsedTask struct {
	MainTask   MainTask        `json:"main_task"`
	Subtasks   []ParsedSubtask `json:"subtasks"`
	Summary    string          `json:"summary,omitempty"`
	WasComplex bool            `json:"was_complex"`
}

// Sanitize bounds every field of a model response. Assignees are kept only
// when they match one of users, ignoring case.
func Sanitize(p ParsedTask, users []string) (ParsedTask, error) {
	out := ParsedTask{
		MainTask: MainTask{
			Text:       truncate(strings.TrimSpace(p.MainTask.Text), MaxTaskText),
			Priority:   model.CoercePriority(strings.ToLower(string(p.MainTask.Priority))),
			DueDate:    cleanDate(p.MainTask.DueDate),
			AssignedTo: matchUser(p.MainTask.AssignedTo, users),
		},
		Summary:    truncate(strings.TrimSpace(p.Summary), MaxSummaryText),
		WasComplex: p.WasComplex,
	}
	if out.MainTask.Text == "" {
		return ParsedTask{}, ErrEmptyResult
	}

	for _, s := range p.Subtasks {
		if len(out.Subtasks) == MaxSubtasks {
			break
		}
		text := truncate(strings.TrimSpace(s.Text), MaxSubtaskText)
		if text == "" {
			continue
		}
		sub := ParsedSubtask{
			Text:     text,
			Priority: model.CoercePriority(strings.ToLower(string(s.Priority))),
		}
		if s.EstimatedMinutes != nil {
			m := min(max(*s.EstimatedMinutes, MinEstimate), MaxEstimate)
			sub.EstimatedMinutes = &m
		}
		out.Subtasks = append(out.Subtasks, sub)
	}
	if len(out.Subtasks) > 0 {
		out.WasComplex = true
	}
	return out, nil
}

// Draft converts the result into task input for the mutation engine.
func (p ParsedTask) Draft() model.Todo {
	t := model.Todo{
		Text:       p.MainTask.Text,
		Priority:   p.MainTask.Priority,
		AssignedTo: p.MainTask.AssignedTo,
		Notes:      p.Summary,
	}
	if d, err := civil.ParseDate(p.MainTask.DueDate); err == nil {
		t.DueDate = &d
	}
	for _, s := range p.Subtasks {
		sub := model.Subtask{Text: s.Text, Priority: s.Priority}
		if s.EstimatedMinutes != nil {
			m := *s.EstimatedMinutes
			sub.EstimatedMinutes = &m
		}
		t.Subtasks = append(t.Subtasks, sub)
	}
	return t
}

func cleanDate(s string) string {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return ""
	}
	return d.String()
}

func matchUser(name string, users []string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, u := range users {
		if strings.EqualFold(u, name) {
			return u
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
