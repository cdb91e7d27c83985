package model

import (
	"time"

	"cloud.google.com/go/civil"
)

type GoalStatus string

const (
	GoalNotStarted GoalStatus = "not_started"
	GoalInProgress GoalStatus = "in_progress"
	GoalOnHold     GoalStatus = "on_hold"
	GoalCompleted  GoalStatus = "completed"
	GoalCancelled  GoalStatus = "cancelled"
)

type GoalCategory struct {
	ID           string `json:"id"`
	Name         string `json:"name" validate:"required,max=100"`
	Color        string `json:"color" validate:"omitempty,hexcolor"`
	Icon         string `json:"icon,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type Goal struct {
	ID          string      `json:"id"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description,omitempty"`
	CategoryID  *string     `json:"category_id,omitempty"`
	Status      GoalStatus  `json:"status" validate:"omitempty,oneof=not_started in_progress on_hold completed cancelled"`
	Priority    Priority    `json:"priority"`
	TargetDate  *civil.Date `json:"target_date,omitempty"`
	Progress    int         `json:"progress" validate:"gte=0,lte=100"`
	Notes       string      `json:"notes,omitempty"`
	CreatedBy   string      `json:"created_by" validate:"required"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Milestone struct {
	ID           string      `json:"id"`
	GoalID       string      `json:"goal_id"`
	Title        string      `json:"title" validate:"required,max=200"`
	Completed    bool        `json:"completed"`
	TargetDate   *civil.Date `json:"target_date,omitempty"`
	DisplayOrder int         `json:"display_order"`
	CreatedAt    time.Time   `json:"created_at"`
}
