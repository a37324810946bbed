package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// Task is a follow-up item. The related client/deal/property links are loose:
// all optional, independently settable, not mutually exclusive.
type Task struct {
	Model

	Title       string       `gorm:"not null" json:"title"`
	Description *string      `json:"description"`
	DueAt       time.Time    `gorm:"not null;index" json:"dueAt"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(15);not null;default:'TODO';index" json:"status"`
	AssignedTo  string       `gorm:"type:uuid;not null;index" json:"assignedTo"`

	RelatedClientID   *string `gorm:"type:uuid;index" json:"relatedClientId"`
	RelatedDealID     *string `gorm:"type:uuid;index" json:"relatedDealId"`
	RelatedPropertyID *string `gorm:"type:uuid;index" json:"relatedPropertyId"`

	ReminderAt     *time.Time `json:"reminderAt"`
	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`

	// Relations
	Agent    *User     `gorm:"foreignKey:AssignedTo" json:"agent,omitempty"`
	Client   *Client   `gorm:"foreignKey:RelatedClientID" json:"client,omitempty"`
	Deal     *Deal     `gorm:"foreignKey:RelatedDealID" json:"deal,omitempty"`
	Property *Property `gorm:"foreignKey:RelatedPropertyID" json:"property,omitempty"`
}
