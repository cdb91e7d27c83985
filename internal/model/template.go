package model

import "time"

type TemplateSubtask struct {
	Text             string   `json:"text" validate:"required,max=200"`
	Priority         Priority `json:"priority"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
}

type TaskTemplate struct {
	ID                string            `json:"id"`
	Name              string            `json:"name" validate:"required,max=100"`
	Description       string            `json:"description,omitempty" validate:"max=1000"`
	DefaultPriority   Priority          `json:"default_priority"`
	DefaultAssignedTo string            `json:"default_assigned_to,omitempty"`
	Subtasks          []TemplateSubtask `json:"subtasks" validate:"max=50,dive"`
	CreatedBy         string            `json:"created_by" validate:"required"`
	IsShared          bool              `json:"is_shared"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Instantiate turns the template into a fresh task owned by createdBy.
// newID supplies identifiers for the task and each subtask in order.
func (tt TaskTemplate) Instantiate(createdBy string, newID func() string, now time.Time) Todo {
	t := Todo{
		ID:         newID(),
		Text:       tt.Name,
		Priority:   CoercePriority(string(tt.DefaultPriority)),
		AssignedTo: tt.DefaultAssignedTo,
		CreatedBy:  createdBy,
		Notes:      tt.Description,
		CreatedAt:  now,
	}
	for _, s := range tt.Subtasks {
		sub := Subtask{
			ID:       newID(),
			Text:     s.Text,
			Priority: CoercePriority(string(s.Priority)),
		}
		if s.EstimatedMinutes != nil {
			m := *s.EstimatedMinutes
			sub.EstimatedMinutes = &m
		}
		t.Subtasks = append(t.Subtasks, sub)
	}
	return t.Normalize()
}
