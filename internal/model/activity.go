package model

import "time"

type ActivityAction string

const (
	ActionTaskCreated     ActivityAction = "task_created"
	ActionTaskUpdated     ActivityAction = "task_updated"
	ActionTaskDeleted     ActivityAction = "task_deleted"
	ActionTaskCompleted   ActivityAction = "task_completed"
	ActionTaskReopened    ActivityAction = "task_reopened"
	ActionTaskReassigned  ActivityAction = "task_reassigned"
	ActionStatusChanged   ActivityAction = "status_changed"
	ActionSubtaskUpdated  ActivityAction = "subtask_updated"
	ActionTemplateCreated ActivityAction = "template_created"
	ActionTemplateDeleted ActivityAction = "template_deleted"
)

type ActivityEntry struct {
	ID        string            `json:"id"`
	Action    ActivityAction    `json:"action"`
	TodoID    string            `json:"todo_id,omitempty"`
	TodoText  string            `json:"todo_text,omitempty"`
	UserName  string            `json:"user_name"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type ActivityFilter struct {
	TodoID *string
}
