package models

type PropertyStatus string

const (
	PropertyActive     PropertyStatus = "ACTIVE"
	PropertyUnderOffer PropertyStatus = "UNDER_OFFER"
	PropertyRented     PropertyStatus = "RENTED"
	PropertySold       PropertyStatus = "SOLD"
	PropertyArchived   PropertyStatus = "ARCHIVED"
)

type Currency string

const (
	CurrencyILS Currency = "ILS"
	CurrencyUSD Currency = "USD"
)

// Property is a listing for sale or rent. A property may appear in several
// deals at once; it is never owned by a deal.
type Property struct {
	Model

	Title       string         `gorm:"not null;index" json:"title"`
	Address     string         `gorm:"not null" json:"address"`
	Price       float64        `gorm:"not null" json:"price"`
	Currency    Currency       `gorm:"type:varchar(8);not null;default:'ILS'" json:"currency"`
	Description *string        `json:"description"`
	Status      PropertyStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Rooms       *int           `json:"rooms"`
	SizeSqm     *int           `json:"sizeSqm"`
	Floor       *int           `json:"floor"`

	OwnerClientID *string `gorm:"type:uuid;index" json:"ownerClientId"`

	// Relations
	Owner  *Client         `gorm:"foreignKey:OwnerClientID" json:"owner,omitempty"`
	Photos []PropertyPhoto `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"photos"`
	Deals  []Deal          `gorm:"foreignKey:PropertyID" json:"deals,omitempty"`
	Tasks  []Task          `gorm:"foreignKey:RelatedPropertyID" json:"tasks,omitempty"`
}

// PropertyPhoto belongs to exactly one property and is removed with it.
type PropertyPhoto struct {
	Model

	PropertyID string `gorm:"type:uuid;not null;index" json:"propertyId"`
	URL        string `gorm:"not null" json:"url"`
}
