package model

import (
	"time"

	"cloud.google.com/go/civil"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from most to least pressing: urgent is 0, low is 3.
// Unknown values rank with medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// CoercePriority maps free-form input onto a known priority, falling back to medium.
func CoercePriority(s string) Priority {
	p := Priority(s)
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

type Subtask struct {
	ID               string   `json:"id"`
	Text             string   `json:"text" validate:"required,max=200"`
	Completed        bool     `json:"completed"`
	Priority         Priority `json:"priority"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
}

type Todo struct {
	ID         string      `json:"id"`
	Text       string      `json:"text" validate:"required,max=500"`
	Completed  bool        `json:"completed"`
	Status     Status      `json:"status"`
	Priority   Priority    `json:"priority"`
	DueDate    *civil.Date `json:"due_date,omitempty"`
	AssignedTo string      `json:"assigned_to,omitempty"`
	CreatedBy  string      `json:"created_by" validate:"required"`
	Notes      string      `json:"notes,omitempty" validate:"max=5000"`
	Recurrence Recurrence  `json:"recurrence,omitempty"`
	Subtasks   []Subtask   `json:"subtasks,omitempty" validate:"max=50,dive"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
	UpdatedBy  string      `json:"updated_by,omitempty"`
}

// Normalize fills defaults and keeps Completed and Status in lockstep.
// A done status always wins; otherwise a completed flag promotes the status to done.
func (t Todo) Normalize() Todo {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
	switch {
	case t.Status == StatusDone:
		t.Completed = true
	case t.Completed:
		t.Status = StatusDone
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].Priority == "" {
			t.Subtasks[i].Priority = PriorityMedium
		}
	}
	return t
}

// Clone returns a copy that shares no mutable state with t.
func (t Todo) Clone() Todo {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		t.UpdatedAt = &u
	}
	if t.Subtasks != nil {
		subs := make([]Subtask, len(t.Subtasks))
		for i, s := range t.Subtasks {
			if s.EstimatedMinutes != nil {
				m := *s.EstimatedMinutes
				s.EstimatedMinutes = &m
			}
			subs[i] = s
		}
		t.Subtasks = subs
	}
	return t
}

// TodoPatch is a partial update. Nil fields are left untouched.
type TodoPatch struct {
	Text         *string     `json:"text,omitempty" validate:"omitempty,min=1,max=500"`
	Completed    *bool       `json:"completed,omitempty"`
	Status       *Status     `json:"status,omitempty"`
	Priority     *Priority   `json:"priority,omitempty"`
	DueDate      *civil.Date `json:"due_date,omitempty"`
	ClearDueDate bool        `json:"clear_due_date,omitempty"`
	AssignedTo   *string     `json:"assigned_to,omitempty"`
	Notes        *string     `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Recurrence   *Recurrence `json:"recurrence,omitempty"`
	Subtasks     *[]Subtask  `json:"subtasks,omitempty"`
	UpdatedBy    string      `json:"updated_by,omitempty"`
}

// Normalize makes Completed and Status agree. When both are set, Status wins.
func (p TodoPatch) Normalize() TodoPatch {
	switch {
	case p.Status != nil:
		done := *p.Status == StatusDone
		p.Completed = &done
	case p.Completed != nil:
		s := StatusTodo
		if *p.Completed {
			s = StatusDone
		}
		p.Status = &s
	}
	return p
}

func (p TodoPatch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.AssignedTo == nil && p.Notes == nil &&
		p.Recurrence == nil && p.Subtasks == nil
}

// ApplyTo returns t with the patch applied. The result is normalised.
func (p TodoPatch) ApplyTo(t Todo) Todo {
	t = t.Clone()
	p = p.Normalize()
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.Subtasks != nil {
		t.Subtasks = Todo{Subtasks: *p.Subtasks}.Clone().Subtasks
	}
	if p.UpdatedBy != "" {
		t.UpdatedBy = p.UpdatedBy
	}
	return t.Normalize()
}

type TodoFilter struct {
	AssignedTo *string
	Status     *Status
}
