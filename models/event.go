package models

type Ticketing struct {
	TicketURL   string  `json:"ticket_url"`
	TicketPrice float64 `json:"ticket_price"`
}

type Event struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"image_url"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Location    *string    `json:"location"`
	Ticket      *Ticketing `json:"ticket"`
	MaxSupport  int        `json:"max_support"`
	CafeIDs     []string   `json:"cafe_ids"`
	CreatorID   string     `json:"creator_id"`
	EditorIDs   []string   `json:"editor_ids"`
}

// DefaultMaxSupport is sent when an event form leaves max support unset.
const DefaultMaxSupport = 3

type EventInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Location    *string    `json:"location,omitempty"`
	Ticket      *Ticketing `json:"ticket,omitempty"`
	MaxSupport  int        `json:"max_support,omitempty"`
	CafeIDs     []string   `json:"cafe_ids,omitempty"`
}

type EventUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	StartDate   *string    `json:"start_date,omitempty"`
	EndDate     *string    `json:"end_date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Ticket      *Ticketing `json:"ticket,omitempty"`
	MaxSupport  *int       `json:"max_support,omitempty"`
	EditorIDs   []string   `json:"editor_ids,omitempty"`
}
