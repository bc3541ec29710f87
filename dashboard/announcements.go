package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
	"github.com/ray-remotestate/cafedash/utils"
)

const announcementPageSize = 20

func announcementID(a models.Announcement) string { return a.ID }

// AnnouncementForm is what the announcement editor submits. Tags is the raw
// comma separated input.
type AnnouncementForm struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ActiveUntil time.Time `json:"active_until"`
	Tags        string    `json:"tags"`
}

func (f AnnouncementForm) validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(f.Title) == "" {
		errs = invalid(errs, "title", "Title is required")
	}
	if strings.TrimSpace(f.Content) == "" {
		errs = invalid(errs, "content", "Content is required")
	}
	if f.ActiveUntil.IsZero() {
		errs = invalid(errs, "active_until", "Active until date is required")
	}
	return errs.ErrorOrNil()
}

func (f AnnouncementForm) input() models.AnnouncementInput {
	return models.AnnouncementInput{
		Title:       strings.TrimSpace(f.Title),
		Content:     f.Content,
		ActiveUntil: f.ActiveUntil,
		Tags:        utils.ParseTags(f.Tags),
	}
}

// AnnouncementsPage manages the announcements of the owned café.
type AnnouncementsPage struct {
	api API

	mu            sync.RWMutex
	sess          *models.Session
	slug          string
	announcements *reconcile.List[models.Announcement, string]
	initErr       error
}

func NewAnnouncementsPage(api API) *AnnouncementsPage {
	return &AnnouncementsPage{api: api}
}

func (p *AnnouncementsPage) Init(ctx context.Context, sess *models.Session) error {
	owned, err := ownedCafe(sess)
	if err != nil {
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	if p.announcements != nil && p.slug != owned.Slug {
		if p.announcements.Submitting() {
			p.mu.Unlock()
			return reconcile.ErrSubmitting
		}
		p.announcements = nil
	}
	if p.announcements == nil {
		cafeID := owned.ID
		p.announcements = reconcile.NewList(announcementID, func(ctx context.Context) ([]models.Announcement, error) {
			all, err := cafeapi.Paginate(ctx, announcementPageSize, announcementID, func(ctx context.Context, page, size int) (*models.Page[models.Announcement], error) {
				return p.api.ListAnnouncements(ctx, p.session(), cafeID, page, size)
			})
			if cafeapi.IsNotFound(err) {
				return []models.Announcement{}, nil
			}
			return all, err
		})
	}
	p.sess = sess
	p.slug = owned.Slug
	p.initErr = nil
	announcements := p.announcements
	p.mu.Unlock()

	return announcements.Load(ctx)
}

func (p *AnnouncementsPage) session() *models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sess
}

func (p *AnnouncementsPage) Ensure(ctx context.Context, sess *models.Session) error {
	if state, _ := p.State(); state == reconcile.Ready {
		return nil
	}
	return p.Init(ctx, sess)
}

func (p *AnnouncementsPage) State() (reconcile.State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initErr != nil {
		return reconcile.Failed, p.initErr
	}
	if p.announcements == nil {
		return reconcile.Loading, nil
	}
	return p.announcements.State()
}

func (p *AnnouncementsPage) list() (string, *reconcile.List[models.Announcement, string], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.announcements == nil {
		if p.initErr != nil {
			return "", nil, p.initErr
		}
		return "", nil, ErrNotLoaded
	}
	return p.slug, p.announcements, nil
}

func (p *AnnouncementsPage) Announcements() []models.Announcement {
	_, list, err := p.list()
	if err != nil {
		return []models.Announcement{}
	}
	return list.Items()
}

// Search matches the query against titles and contents.
func (p *AnnouncementsPage) Search(query string) []models.Announcement {
	_, list, err := p.list()
	if err != nil {
		return []models.Announcement{}
	}
	if strings.TrimSpace(query) == "" {
		return list.Items()
	}
	return list.Filter(func(a models.Announcement) bool {
		return utils.ContainsFold(a.Title, query) || utils.ContainsFold(a.Content, query)
	})
}

// Submit publishes a new announcement, reloads the whole list and notifies
// subscribers.
func (p *AnnouncementsPage) Submit(ctx context.Context, sess *models.Session, form AnnouncementForm) (models.Announcement, error) {
	if err := form.validate(); err != nil {
		return models.Announcement{}, err
	}
	slug, list, err := p.list()
	if err != nil {
		return models.Announcement{}, err
	}

	var created models.Announcement
	err = list.Refresh(ctx, func(ctx context.Context) error {
		a, err := p.api.CreateAnnouncement(ctx, sess, slug, form.input())
		if err != nil {
			return err
		}
		created = *a
		return nil
	})
	if err != nil {
		return created, err
	}

	body := created.Content
	if body == "" {
		body = "Une nouvelle annonce a été publiée!"
	}
	n := models.Notification{Title: "Nouvelle annonce: " + created.Title, Body: body}
	if err := p.api.SendNotification(ctx, sess, n); err != nil {
		logrus.WithError(err).WithField("title", n.Title).Error("failed to send notification")
	}
	return created, nil
}

func (p *AnnouncementsPage) Update(ctx context.Context, sess *models.Session, id string, form AnnouncementForm) (models.Announcement, error) {
	if err := form.validate(); err != nil {
		return models.Announcement{}, err
	}
	slug, list, err := p.list()
	if err != nil {
		return models.Announcement{}, err
	}
	return list.Update(ctx, func(ctx context.Context) (models.Announcement, error) {
		updated, err := p.api.UpdateAnnouncement(ctx, sess, slug, id, form.input())
		if err != nil {
			return models.Announcement{}, err
		}
		return *updated, nil
	})
}

func (p *AnnouncementsPage) Delete(ctx context.Context, sess *models.Session, id string) error {
	slug, list, err := p.list()
	if err != nil {
		return err
	}
	return list.Delete(ctx, id, func(ctx context.Context) error {
		return p.api.DeleteAnnouncement(ctx, sess, slug, id)
	})
}

type AnnouncementsView struct {
	View
	Announcements []models.Announcement `json:"announcements"`
}

func (p *AnnouncementsPage) View(query string) AnnouncementsView {
	state, err := p.State()
	return AnnouncementsView{View: viewOf(state, err), Announcements: p.Search(query)}
}
