package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

const (
	TableTodos      = "todos"
	TableUsers      = "users"
	TableActivity   = "activity_log"
	TableTemplates  = "task_templates"
	TableGoals      = "strategic_goals"
	TableCategories = "goal_categories"
	TableMilestones = "goal_milestones"
)

// ChangeEvent is a row-level change published by the store.
// New carries the row for INSERT and UPDATE; Old carries at least the id for DELETE.
type ChangeEvent struct {
	Table string          `json:"table"`
	Type  EventType       `json:"type"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
	At    time.Time       `json:"at"`
	// Truncated is set when the row was too large for the notification and
	// must be refetched by id.
	Truncated bool `json:"truncated,omitempty"`
}

// RowID extracts the id of the affected row.
func (e ChangeEvent) RowID() (string, error) {
	raw := e.New
	if e.Type == EventDelete || len(raw) == 0 {
		raw = e.Old
	}
	var row struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return "", err
	}
	return row.ID, nil
}

func (e ChangeEvent) Todo() (Todo, error) {
	var t Todo
	err := json.Unmarshal(e.New, &t)
	return t, err
}
