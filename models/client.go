package models

type ClientStatus string

const (
	ClientNew           ClientStatus = "NEW"
	ClientActive        ClientStatus = "ACTIVE"
	ClientNotInterested ClientStatus = "NOT_INTERESTED"
	ClientConverted     ClientStatus = "CONVERTED"
	ClientLost          ClientStatus = "LOST"
)

type LeadSource string

const (
	SourceInstagram LeadSource = "INSTAGRAM"
	SourceFacebook  LeadSource = "FACEBOOK"
	SourceTikTok    LeadSource = "TIKTOK"
	SourceReferral  LeadSource = "REFERRAL"
	SourcePortal    LeadSource = "PORTAL"
	SourceOther     LeadSource = "OTHER"
)

// Client is a lead, buyer or seller. Status transitions are advisory: the only
// automatic moves are NEW->ACTIVE on first deal and ->CONVERTED on deal close.
type Client struct {
	Model

	FullName   string       `gorm:"not null;index" json:"fullName"`
	Phone      string       `gorm:"not null" json:"phone"`
	Email      *string      `json:"email"`
	LeadSource *LeadSource  `gorm:"type:varchar(20)" json:"leadSource"`
	Status     ClientStatus `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	AssignedTo string       `gorm:"type:uuid;not null;index" json:"assignedTo"`

	// Tags keep insertion order; stored as a JSON array, never deduplicated.
	Tags  []string `gorm:"serializer:json" json:"tags"`
	Notes *string  `json:"notes"`

	// Relations
	Agent           *User      `gorm:"foreignKey:AssignedTo" json:"agent,omitempty"`
	Deals           []Deal     `gorm:"foreignKey:ClientID" json:"deals,omitempty"`
	Tasks           []Task     `gorm:"foreignKey:RelatedClientID" json:"tasks,omitempty"`
	Activities      []Activity `gorm:"foreignKey:ClientID" json:"activities,omitempty"`
	OwnedProperties []Property `gorm:"foreignKey:OwnerClientID" json:"ownedProperties,omitempty"`
}

