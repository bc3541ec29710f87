package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
)

// fakeAPI is an in-memory café API. Methods a test does not need fall
// through to the nil embedded interface and panic.
type fakeAPI struct {
	API

	mu            sync.Mutex
	calls         int
	nextID        int
	cafe          models.Cafe
	cafeUpdates   []models.CafeUpdate
	items         []models.MenuItem
	categories    []models.MenuCategory
	highlights    []bool
	events        []models.Event
	announcements []models.Announcement
	notifications []models.Notification
	notifyErr     error
	failWith      error

	// createStarted and createRelease, when set, hold CreateMenuItem until
	// the test lets it answer.
	createStarted chan struct{}
	createRelease chan struct{}
}

func (f *fakeAPI) record() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.failWith
}

func (f *fakeAPI) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) GetCafe(ctx context.Context, sess *models.Session, slug string) (*models.Cafe, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	cafe := f.cafe
	return &cafe, nil
}

func (f *fakeAPI) UpdateCafe(ctx context.Context, sess *models.Session, slug string, payload models.CafeUpdate) (*models.Cafe, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cafeUpdates = append(f.cafeUpdates, payload)
	if payload.Name != nil {
		f.cafe.Name = *payload.Name
	}
	if payload.Description != nil {
		f.cafe.Description = *payload.Description
	}
	if payload.Affiliation != nil {
		f.cafe.Affiliation = *payload.Affiliation
	}
	cafe := f.cafe
	return &cafe, nil
}

func (f *fakeAPI) ListMenuItems(ctx context.Context, sess *models.Session, slug string, page, size int) (*models.Page[models.MenuItem], error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]models.MenuItem{}, f.items...)
	return &models.Page[models.MenuItem]{Items: items, Total: len(items), Page: 1, Size: size, Pages: 1}, nil
}

func (f *fakeAPI) CreateMenuItem(ctx context.Context, sess *models.Session, slug string, payload models.MenuItemInput) (*models.MenuItem, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	if f.createStarted != nil {
		close(f.createStarted)
		<-f.createRelease
	}
	item := models.MenuItem{
		ID:          f.id("item"),
		Name:        payload.Name,
		Price:       payload.Price,
		CategoryIDs: payload.CategoryIDs,
	}
	f.mu.Lock()
	f.items = append([]models.MenuItem{item}, f.items...)
	f.mu.Unlock()
	return &item, nil
}

func (f *fakeAPI) UpdateMenuItem(ctx context.Context, sess *models.Session, slug, itemID string, payload models.MenuItemUpdate) (*models.MenuItem, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	item := models.MenuItem{ID: itemID, Name: *payload.Name, Price: *payload.Price}
	return &item, nil
}

func (f *fakeAPI) DeleteMenuItem(ctx context.Context, sess *models.Session, slug, itemID string) error {
	return f.record()
}

// ToggleHighlight answers with the next queued flag.
func (f *fakeAPI) ToggleHighlight(ctx context.Context, sess *models.Session, slug, itemID string) (*models.MenuItem, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	flag := f.highlights[0]
	f.highlights = f.highlights[1:]
	return &models.MenuItem{ID: itemID, Name: "Latte", IsHighlighted: flag}, nil
}

func (f *fakeAPI) ListCategories(ctx context.Context, sess *models.Session, slug string) (*models.Page[models.MenuCategory], error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Page[models.MenuCategory]{Items: append([]models.MenuCategory{}, f.categories...), Page: 1, Pages: 1}, nil
}

func (f *fakeAPI) CreateCategory(ctx context.Context, sess *models.Session, slug string, payload models.CategoryInput) (*models.MenuCategory, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return &models.MenuCategory{ID: f.id("cat"), Name: payload.Name}, nil
}

func (f *fakeAPI) ListEvents(ctx context.Context, sess *models.Session) ([]models.Event, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Event{}, f.events...), nil
}

func (f *fakeAPI) CreateEvent(ctx context.Context, sess *models.Session, payload models.EventInput) (*models.Event, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return &models.Event{
		ID:          f.id("event"),
		Name:        payload.Name,
		Description: payload.Description,
		StartDate:   payload.StartDate,
		EndDate:     payload.EndDate,
		MaxSupport:  payload.MaxSupport,
		CafeIDs:     payload.CafeIDs,
		Ticket:      payload.Ticket,
	}, nil
}

func (f *fakeAPI) UpdateEvent(ctx context.Context, sess *models.Session, eventID string, payload models.EventUpdate) (*models.Event, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return &models.Event{
		ID:          eventID,
		Name:        *payload.Name,
		Description: payload.Description,
		StartDate:   *payload.StartDate,
		EndDate:     *payload.EndDate,
		Location:    payload.Location,
		MaxSupport:  *payload.MaxSupport,
	}, nil
}

func (f *fakeAPI) DeleteEvent(ctx context.Context, sess *models.Session, eventID string) error {
	return f.record()
}

func (f *fakeAPI) ListAnnouncements(ctx context.Context, sess *models.Session, cafeID string, page, size int) (*models.Page[models.Announcement], error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.announcements == nil {
		return nil, &cafeapi.UpstreamError{Status: 404, Message: "Not found"}
	}
	items := append([]models.Announcement{}, f.announcements...)
	return &models.Page[models.Announcement]{Items: items, Page: 1, Pages: 1}, nil
}

func (f *fakeAPI) CreateAnnouncement(ctx context.Context, sess *models.Session, slug string, payload models.AnnouncementInput) (*models.Announcement, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	a := models.Announcement{
		ID:          f.id("ann"),
		Title:       payload.Title,
		Content:     payload.Content,
		ActiveUntil: payload.ActiveUntil,
		Tags:        payload.Tags,
	}
	f.mu.Lock()
	f.announcements = append([]models.Announcement{a}, f.announcements...)
	f.mu.Unlock()
	return &a, nil
}

func (f *fakeAPI) UpdateAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string, payload models.AnnouncementInput) (*models.Announcement, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return &models.Announcement{ID: announcementID, Title: payload.Title, Content: payload.Content, Tags: payload.Tags}, nil
}

func (f *fakeAPI) DeleteAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string) error {
	return f.record()
}

func (f *fakeAPI) SendNotification(ctx context.Context, sess *models.Session, payload models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, payload)
	return f.notifyErr
}

func (f *fakeAPI) UpdateMe(ctx context.Context, sess *models.Session, payload models.UserUpdate) (*models.User, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	user := *sess.User
	if payload.FirstName != nil {
		user.FirstName = *payload.FirstName
	}
	return &user, nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type savedUsers struct {
	saved []*models.User
}

func (s *savedUsers) SaveUser(ctx context.Context, sess *models.Session, user *models.User) error {
	s.saved = append(s.saved, user)
	sess.User = user
	return nil
}

func ownerSession() *models.Session {
	return &models.Session{
		AccessToken: "token",
		User: &models.User{
			UserProfile: models.UserProfile{ID: "u1", Username: "owner"},
			Cafes: []models.UserCafe{
				{ID: "c0", Slug: "other", Role: models.RoleVolunteer},
				{ID: "c1", Slug: "cafe", Role: models.RoleOwner},
			},
		},
	}
}
