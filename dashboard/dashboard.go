// Package dashboard holds the per-view state of the café admin dashboard.
//
// Every page keeps a server-confirmed copy of the resources it shows and
// changes that copy only after the café API accepted a mutation.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
)

var (
	ErrNoOwnedCafe = errors.New("You don't own any cafes")
	ErrNotLoaded   = errors.New("page is not loaded yet")
)

// API is the part of the café API the dashboard pages call.
// *cafeapi.Client satisfies it.
type API interface {
	GetCafe(ctx context.Context, sess *models.Session, slug string) (*models.Cafe, error)
	UpdateCafe(ctx context.Context, sess *models.Session, slug string, payload models.CafeUpdate) (*models.Cafe, error)

	ListMenuItems(ctx context.Context, sess *models.Session, slug string, page, size int) (*models.Page[models.MenuItem], error)
	CreateMenuItem(ctx context.Context, sess *models.Session, slug string, payload models.MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, sess *models.Session, slug, itemID string, payload models.MenuItemUpdate) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, sess *models.Session, slug, itemID string) error
	ToggleHighlight(ctx context.Context, sess *models.Session, slug, itemID string) (*models.MenuItem, error)
	ListCategories(ctx context.Context, sess *models.Session, slug string) (*models.Page[models.MenuCategory], error)
	CreateCategory(ctx context.Context, sess *models.Session, slug string, payload models.CategoryInput) (*models.MenuCategory, error)

	ListEvents(ctx context.Context, sess *models.Session) ([]models.Event, error)
	CreateEvent(ctx context.Context, sess *models.Session, payload models.EventInput) (*models.Event, error)
	UpdateEvent(ctx context.Context, sess *models.Session, eventID string, payload models.EventUpdate) (*models.Event, error)
	DeleteEvent(ctx context.Context, sess *models.Session, eventID string) error

	ListAnnouncements(ctx context.Context, sess *models.Session, cafeID string, page, size int) (*models.Page[models.Announcement], error)
	CreateAnnouncement(ctx context.Context, sess *models.Session, slug string, payload models.AnnouncementInput) (*models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string, payload models.AnnouncementInput) (*models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string) error

	SendNotification(ctx context.Context, sess *models.Session, payload models.Notification) error
	UpdateMe(ctx context.Context, sess *models.Session, payload models.UserUpdate) (*models.User, error)
}

// UserSaver stores a refreshed user profile in the session.
// *session.Manager satisfies it.
type UserSaver interface {
	SaveUser(ctx context.Context, sess *models.Session, user *models.User) error
}

// ownedCafe picks the café the dashboard edits: the first one the session's
// user owns.
func ownedCafe(sess *models.Session) (models.UserCafe, error) {
	if sess.Token() == "" || sess.User == nil {
		return models.UserCafe{}, cafeapi.ErrNotAuthenticated
	}
	owned := sess.User.OwnedCafes()
	if len(owned) == 0 {
		return models.UserCafe{}, ErrNoOwnedCafe
	}
	return owned[0], nil
}

func invalid(errs *multierror.Error, field, message string) *multierror.Error {
	errs = multierror.Append(errs, &cafeapi.ValidationError{Field: field, Message: message})
	errs.ErrorFormat = joinMessages
	return errs
}

func joinMessages(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// StatusCode extends cafeapi.StatusCode with the dashboard's own errors.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNoOwnedCafe):
		return http.StatusForbidden
	case errors.Is(err, reconcile.ErrSubmitting), errors.Is(err, ErrNotLoaded):
		return http.StatusConflict
	default:
		return cafeapi.StatusCode(err)
	}
}

// Workspace is the set of pages one logged-in user works with.
type Workspace struct {
	Cafe          *CafePage
	Menu          *MenuPage
	Events        *EventsPage
	Announcements *AnnouncementsPage
	Profile       *ProfilePage
}

// DefaultIdleTimeout is how long a workspace survives without a request.
// Its pages are caches of the upstream, so an evicted workspace only costs a
// reload on the next visit.
const DefaultIdleTimeout = 2 * time.Hour

type registryEntry struct {
	ws       *Workspace
	lastUsed time.Time
}

// Registry keeps one workspace per session.
type Registry struct {
	api   API
	users UserSaver
	now   func() time.Time

	mu         sync.Mutex
	workspaces map[uuid.UUID]*registryEntry
}

func NewRegistry(api API, users UserSaver) *Registry {
	return &Registry{
		api:        api,
		users:      users,
		now:        time.Now,
		workspaces: make(map[uuid.UUID]*registryEntry),
	}
}

// Workspace returns the workspace of the session, creating it on first use.
func (r *Registry) Workspace(id uuid.UUID) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.workspaces[id]; ok {
		entry.lastUsed = r.now()
		return entry.ws
	}
	ws := &Workspace{
		Cafe:          NewCafePage(r.api),
		Menu:          NewMenuPage(r.api),
		Events:        NewEventsPage(r.api),
		Announcements: NewAnnouncementsPage(r.api),
		Profile:       NewProfilePage(r.api, r.users),
	}
	r.workspaces[id] = &registryEntry{ws: ws, lastUsed: r.now()}
	return ws
}

// Drop forgets the workspace of a session that logged out.
func (r *Registry) Drop(id uuid.UUID) {
	r.mu.Lock()
	delete(r.workspaces, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Prune drops the workspaces nobody used for longer than maxIdle and
// returns how many it dropped.
func (r *Registry) Prune(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxIdle)
	pruned := 0
	for id, entry := range r.workspaces {
		if entry.lastUsed.Before(cutoff) {
			delete(r.workspaces, id)
			pruned++
		}
	}
	return pruned
}

// Sweep prunes idle workspaces every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Prune(maxIdle); n > 0 {
				logrus.WithField("pruned", n).Debug("dropped idle dashboard workspaces")
			}
		}
	}
}

// View is the serialisable snapshot of a page.
type View struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

func viewOf(state reconcile.State, err error) View {
	v := View{State: state.String()}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}
