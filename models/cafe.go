package models

type OpeningHoursBlock struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type OpeningHours struct {
	Day    string              `json:"day"`
	Blocks []OpeningHoursBlock `json:"blocks"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Location struct {
	Pavillon string   `json:"pavillon"`
	Local    string   `json:"local"`
	Floor    string   `json:"floor"`
	Geometry Geometry `json:"geometry"`
}

type Contact struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Website     string `json:"website"`
}

type SocialMedia struct {
	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	X         *string `json:"x"`
}

type PaymentDetails struct {
	Method  string   `json:"method"`
	Minimum *float64 `json:"minimum,omitempty"`
}

type Affiliation struct {
	University string `json:"university"`
	Faculty    string `json:"faculty"`
}

type Staff struct {
	Admins     []UserProfile `json:"admins"`
	Volunteers []UserProfile `json:"volunteers"`
}

type Menu struct {
	Layout     string         `json:"layout"`
	Categories []MenuCategory `json:"categories"`
}

type Cafe struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	PreviousSlugs  []string         `json:"previous_slugs"`
	Features       []string         `json:"features"`
	Description    string           `json:"description"`
	LogoURL        *string          `json:"logo_url"`
	BannerURL      string           `json:"banner_url"`
	PhotoURLs      []string         `json:"photo_urls"`
	Affiliation    Affiliation      `json:"affiliation"`
	IsOpen         bool             `json:"is_open"`
	StatusMessage  string           `json:"status_message"`
	OpeningHours   []OpeningHours   `json:"opening_hours"`
	Location       Location         `json:"location"`
	Contact        Contact          `json:"contact"`
	SocialMedia    SocialMedia      `json:"social_media"`
	PaymentDetails []PaymentDetails `json:"payment_details"`
	Owner          *UserProfile     `json:"owner"`
	Staff          Staff            `json:"staff"`
	Menu           Menu             `json:"menu"`
}

// CafeUpdate carries a partial café update; nil fields are left out of the
// request body so the upstream keeps their current value.
type CafeUpdate struct {
	Name           *string          `json:"name,omitempty"`
	Features       []string         `json:"features,omitempty"`
	Description    *string          `json:"description,omitempty"`
	LogoURL        *string          `json:"logo_url,omitempty"`
	BannerURL      *string          `json:"banner_url,omitempty"`
	PhotoURLs      []string         `json:"photo_urls,omitempty"`
	Affiliation    *Affiliation     `json:"affiliation,omitempty"`
	IsOpen         *bool            `json:"is_open,omitempty"`
	StatusMessage  *string          `json:"status_message,omitempty"`
	OpeningHours   []OpeningHours   `json:"opening_hours,omitempty"`
	Location       *Location        `json:"location,omitempty"`
	Contact        *Contact         `json:"contact,omitempty"`
	SocialMedia    *SocialMedia     `json:"social_media,omitempty"`
	PaymentDetails []PaymentDetails `json:"payment_details,omitempty"`
	OwnerID        *string          `json:"owner_id,omitempty"`
	Owner          *UserProfile     `json:"owner,omitempty"`
	Staff          *Staff           `json:"staff,omitempty"`
}
