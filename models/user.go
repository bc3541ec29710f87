package models

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleAdmin     Role = "ADMIN"
	RoleVolunteer Role = "VOLUNTEER"
)

func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleVolunteer
}

type DietProfile struct {
	DietIDs            []string           `json:"diet_ids"`
	PreferredNutrients map[string]float64 `json:"preferred_nutrients"`
	Allergens          map[string]float64 `json:"allergens"`
}

// UserProfile is the public shape of a user as embedded in cafés,
// announcements and staff lists.
type UserProfile struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	PhotoURL    string       `json:"photo_url"`
	Matricule   string       `json:"matricule,omitempty"`
	DietProfile *DietProfile `json:"diet_profile"`
}

type UserCafe struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	LogoURL   string `json:"logo_url"`
	BannerURL string `json:"banner_url"`
	Role      Role   `json:"role"`
}

// User is the authenticated profile returned by /users/@me.
type User struct {
	UserProfile
	Cafes        []UserCafe        `json:"cafes"`
	CafeFavs     []json.RawMessage `json:"cafe_favs"`
	ArticlesFavs []json.RawMessage `json:"articles_favs"`
}

// OwnedCafes returns the cafés the user may edit.
func (u *User) OwnedCafes() []UserCafe {
	if u == nil {
		return nil
	}
	var owned []UserCafe
	for _, c := range u.Cafes {
		if Role(strings.ToUpper(string(c.Role))) == RoleOwner {
			owned = append(owned, c)
		}
	}
	return owned
}

type UserUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	PhotoURL  *string `json:"photo_url,omitempty"`
}
