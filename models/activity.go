package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityNote         ActivityType = "NOTE"
	ActivityCall         ActivityType = "CALL"
	ActivityMeeting      ActivityType = "MEETING"
	ActivityEmail        ActivityType = "EMAIL"
	ActivityStageChange  ActivityType = "STAGE_CHANGE"
	ActivityTaskCreated  ActivityType = "TASK_CREATED"
	ActivityDealCreated  ActivityType = "DEAL_CREATED"
	ActivityStatusChange ActivityType = "STATUS_CHANGE"
)

// Activity is an append-only log entry. Rows are never updated or deleted by
// the system, so the struct carries no UpdatedAt.
type Activity struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	Type    ActivityType `gorm:"type:varchar(20);not null" json:"type"`
	Content string       `gorm:"type:text;not null" json:"content"`

	UserID   *string `gorm:"type:uuid;index" json:"userId"`
	ClientID *string `gorm:"type:uuid;index" json:"clientId"`
	DealID   *string `gorm:"type:uuid;index" json:"dealId"`

	// Relations
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Deal   *Deal   `gorm:"foreignKey:DealID" json:"deal,omitempty"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
