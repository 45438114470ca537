package donations

import "time"

// Item statuses.
const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
	StatusDonated   = "donated"
)

// DefaultRequestMessage is stored when a requester leaves no message.
const DefaultRequestMessage = "Request for item"

// Donor holds the contact details revealed to requesters.
type Donor struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// Owner is the public view of the user who listed an item.
type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Item is a donated item listing.
type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	Owner       *Owner    `json:"owner,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	ImageURL    *string   `json:"imageUrl"`
	Donor       Donor     `json:"donor"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ContactRequest records that a user asked for a donor's contact details.
type ContactRequest struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"donationId"`
	RequesterID string    `json:"requesterId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Contact is returned to a requester.
type Contact struct {
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// CreateInput is the payload for listing an item.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required,max=100"`
	Condition   string `json:"condition" validate:"required,max=100"`
	DonorName   string `json:"donorName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,max=254"`
	Mobile      string `json:"mobile" validate:"required,max=32"`
}

// UpdateInput is a partial update of an item. Nil fields are left alone.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,min=1,max=5000"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=100"`
	Condition   *string `json:"condition" validate:"omitempty,min=1,max=100"`
	Status      *string `json:"status" validate:"omitempty,oneof=available reserved donated"`
}

// ListFilter narrows and pages item listings.
type ListFilter struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// Stats summarises marketplace activity.
type Stats struct {
	Users          int64  `json:"users"`
	TotalItems     int64  `json:"totalItems"`
	AvailableItems int64  `json:"availableItems"`
	AvgResponse    string `json:"avgResponse"`
}

// Counts are the raw figures behind Stats.
type Counts struct {
	Users              int64
	TotalItems         int64
	AvailableItems     int64
	AvgRequestAgeHours float64
	HasRequests        bool
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UserName  string    `json:"userName"`
	ImageURL  *string   `json:"imageUrl"`
}

// Categories and Conditions are the choices offered by the donate form.
// The API accepts any non-empty value.
var (
	Categories = []string{"books", "electronics", "furniture", "clothing", "stationery", "sports", "other"}
	Conditions = []string{"new", "like new", "good", "fair"}
)
