package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ray-remotestate/cafedash/models"
)

// ProfilePage edits the logged-in user's own profile.
type ProfilePage struct {
	api   API
	users UserSaver
}

func NewProfilePage(api API, users UserSaver) *ProfilePage {
	return &ProfilePage{api: api, users: users}
}

func validateUserUpdate(u models.UserUpdate) error {
	var errs *multierror.Error
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		errs = invalid(errs, "username", "Username must not be empty")
	}
	if u.Email != nil && !strings.Contains(*u.Email, "@") {
		errs = invalid(errs, "email", "Email is invalid")
	}
	if u.Password != nil && *u.Password == "" {
		errs = invalid(errs, "password", "Password must not be empty")
	}
	return errs.ErrorOrNil()
}

// UpdateProfile pushes the update and stores the refreshed user in the
// session.
func (p *ProfilePage) UpdateProfile(ctx context.Context, sess *models.Session, update models.UserUpdate) (*models.User, error) {
	if err := validateUserUpdate(update); err != nil {
		return nil, err
	}
	user, err := p.api.UpdateMe(ctx, sess, update)
	if err != nil {
		return nil, err
	}
	if err := p.users.SaveUser(ctx, sess, user); err != nil {
		return nil, fmt.Errorf("store refreshed user: %w", err)
	}
	return user, nil
}
