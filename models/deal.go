package models

import "time"

type DealStage string

const (
	StageNewLead     DealStage = "NEW_LEAD"
	StageNegotiation DealStage = "NEGOTIATION"
	StageViewing     DealStage = "VIEWING"
	StageContract    DealStage = "CONTRACT"
	StageClosed      DealStage = "CLOSED"
)

// DealStages lists the pipeline stages in board order. The order is a label
// ordering only: any stage-to-stage transition is legal, including backward.
var DealStages = []DealStage{
	StageNewLead,
	StageNegotiation,
	StageViewing,
	StageContract,
	StageClosed,
}

// Deal moves through the pipeline on behalf of one client, optionally tied to
// a property. CLOSED is not terminal; only the dedicated stage-transition
// endpoint gives it special treatment.
type Deal struct {
	Model

	ClientID   string    `gorm:"type:uuid;not null;index" json:"clientId"`
	PropertyID *string   `gorm:"type:uuid;index" json:"propertyId"`
	Stage      DealStage `gorm:"type:varchar(20);not null;default:'NEW_LEAD';index" json:"stage"`

	Value        *float64   `json:"value"`
	Probability  *int       `json:"probability"`
	AssignedTo   string     `gorm:"type:uuid;not null;index" json:"assignedTo"`
	NextActionAt *time.Time `json:"nextActionAt"`
	LostReason   *string    `json:"lostReason"`

	// Relations
	Client     *Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Property   *Property  `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Agent      *User      `gorm:"foreignKey:AssignedTo" json:"agent,omitempty"`
	Tasks      []Task     `gorm:"foreignKey:RelatedDealID" json:"tasks,omitempty"`
	Activities []Activity `gorm:"foreignKey:DealID" json:"activities,omitempty"`
}
