package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
	"github.com/ray-remotestate/cafedash/utils"
)

// defaultTicket is sent for events created without ticketing details; the
// café API requires the field.
var defaultTicket = models.Ticketing{TicketURL: "https://example.com/", TicketPrice: 0}

func eventID(e models.Event) string { return e.ID }

type EventForm struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	ImageURL    *string           `json:"image_url"`
	StartDate   string            `json:"start_date"`
	EndDate     string            `json:"end_date"`
	Location    *string           `json:"location"`
	Ticket      *models.Ticketing `json:"ticket"`
	MaxSupport  int               `json:"max_support"`
}

func (f EventForm) validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(f.Name) == "" {
		errs = invalid(errs, "name", "Name is required")
	}
	if f.StartDate == "" {
		errs = invalid(errs, "start_date", "Start date is required")
	}
	if f.EndDate == "" {
		errs = invalid(errs, "end_date", "End date is required")
	}
	return errs.ErrorOrNil()
}

func (f EventForm) withDefaults() EventForm {
	f.Name = strings.TrimSpace(f.Name)
	if f.MaxSupport <= 0 {
		f.MaxSupport = models.DefaultMaxSupport
	}
	if f.Ticket == nil {
		ticket := defaultTicket
		f.Ticket = &ticket
	}
	return f
}

func (f EventForm) input(cafeID string) models.EventInput {
	return models.EventInput{
		Name:        f.Name,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		StartDate:   f.StartDate,
		EndDate:     f.EndDate,
		Location:    f.Location,
		Ticket:      f.Ticket,
		MaxSupport:  f.MaxSupport,
		CafeIDs:     []string{cafeID},
	}
}

func (f EventForm) update() models.EventUpdate {
	name, start, end, maxSupport := f.Name, f.StartDate, f.EndDate, f.MaxSupport
	return models.EventUpdate{
		Name:        &name,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		StartDate:   &start,
		EndDate:     &end,
		Location:    f.Location,
		Ticket:      f.Ticket,
		MaxSupport:  &maxSupport,
	}
}

// EventsPage manages the events of the owned café.
type EventsPage struct {
	api API

	mu      sync.RWMutex
	sess    *models.Session
	cafeID  string
	events  *reconcile.List[models.Event, string]
	initErr error
}

func NewEventsPage(api API) *EventsPage {
	return &EventsPage{api: api}
}

func (p *EventsPage) Init(ctx context.Context, sess *models.Session) error {
	owned, err := ownedCafe(sess)
	if err != nil {
		p.mu.Lock()
		p.initErr = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	if p.events != nil && p.cafeID != owned.ID {
		if p.events.Submitting() {
			p.mu.Unlock()
			return reconcile.ErrSubmitting
		}
		p.events = nil
	}
	if p.events == nil {
		p.events = reconcile.NewList(eventID, func(ctx context.Context) ([]models.Event, error) {
			return p.api.ListEvents(ctx, p.session())
		})
	}
	p.sess = sess
	p.cafeID = owned.ID
	p.initErr = nil
	events := p.events
	p.mu.Unlock()

	return events.Load(ctx)
}

func (p *EventsPage) session() *models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sess
}

func (p *EventsPage) Ensure(ctx context.Context, sess *models.Session) error {
	if state, _ := p.State(); state == reconcile.Ready {
		return nil
	}
	return p.Init(ctx, sess)
}

func (p *EventsPage) State() (reconcile.State, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.initErr != nil {
		return reconcile.Failed, p.initErr
	}
	if p.events == nil {
		return reconcile.Loading, nil
	}
	return p.events.State()
}

func (p *EventsPage) list() (string, *reconcile.List[models.Event, string], error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.events == nil {
		if p.initErr != nil {
			return "", nil, p.initErr
		}
		return "", nil, ErrNotLoaded
	}
	return p.cafeID, p.events, nil
}

func (p *EventsPage) Events() []models.Event {
	_, events, err := p.list()
	if err != nil {
		return []models.Event{}
	}
	return events.Items()
}

func (p *EventsPage) Search(query string) []models.Event {
	_, events, err := p.list()
	if err != nil {
		return []models.Event{}
	}
	if strings.TrimSpace(query) == "" {
		return events.Items()
	}
	return events.Filter(func(e models.Event) bool {
		return utils.ContainsFold(e.Name, query)
	})
}

// Save creates the event when id is empty and updates it otherwise, then
// tells subscribers about it. A failed notification never fails the save.
func (p *EventsPage) Save(ctx context.Context, sess *models.Session, id string, form EventForm) (models.Event, error) {
	if err := form.validate(); err != nil {
		return models.Event{}, err
	}
	form = form.withDefaults()
	cafeID, events, err := p.list()
	if err != nil {
		return models.Event{}, err
	}

	if id == "" {
		created, err := events.Create(ctx, func(ctx context.Context) (models.Event, error) {
			created, err := p.api.CreateEvent(ctx, sess, form.input(cafeID))
			if err != nil {
				return models.Event{}, err
			}
			return *created, nil
		})
		if err != nil {
			return created, err
		}
		p.notify(ctx, sess, newEventNotification(created))
		return created, nil
	}

	previous, known := events.Get(id)
	updated, err := events.Update(ctx, func(ctx context.Context) (models.Event, error) {
		updated, err := p.api.UpdateEvent(ctx, sess, id, form.update())
		if err != nil {
			return models.Event{}, err
		}
		return *updated, nil
	})
	if err != nil {
		return updated, err
	}
	if known {
		if changes := eventChanges(previous, form); len(changes) > 0 {
			p.notify(ctx, sess, models.Notification{
				Title: "Événement modifié: " + updated.Name,
				Body:  strings.Join(changes, ". "),
			})
		}
	}
	return updated, nil
}

func (p *EventsPage) Delete(ctx context.Context, sess *models.Session, id string) error {
	_, events, err := p.list()
	if err != nil {
		return err
	}
	return events.Delete(ctx, id, func(ctx context.Context) error {
		return p.api.DeleteEvent(ctx, sess, id)
	})
}

func (p *EventsPage) notify(ctx context.Context, sess *models.Session, n models.Notification) {
	if err := p.api.SendNotification(ctx, sess, n); err != nil {
		logrus.WithError(err).WithField("title", n.Title).Error("failed to send notification")
	}
}

func newEventNotification(e models.Event) models.Notification {
	body := fmt.Sprintf("Il y a un nouvel événement le %s!", formatDate(e.StartDate))
	if e.Description != nil && *e.Description != "" {
		body = *e.Description
	}
	return models.Notification{Title: "Nouvel événement: " + e.Name, Body: body}
}

// eventChanges describes, in French, what the form changes on the event.
func eventChanges(before models.Event, after EventForm) []string {
	var changes []string
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Le nom a été changé à %q", after.Name))
	}
	if deref(before.Description) != deref(after.Description) {
		changes = append(changes, "La description a été mise à jour")
	}
	if before.StartDate != after.StartDate {
		changes = append(changes, "La date de début a changé: "+formatDate(after.StartDate))
	}
	if before.EndDate != after.EndDate {
		changes = append(changes, "La date de fin a changé: "+formatDate(after.EndDate))
	}
	if deref(before.Location) != deref(after.Location) {
		location := deref(after.Location)
		if location == "" {
			location = "Non spécifié"
		}
		changes = append(changes, "Le lieu a changé: "+location)
	}
	if deref(before.ImageURL) != deref(after.ImageURL) {
		changes = append(changes, "L'image a été mise à jour")
	}
	return changes
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

// formatDate renders an event date as "Jan 2, 2006, 03:04 PM". Unparsable
// dates are returned unchanged.
func formatDate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006, 03:04 PM")
		}
	}
	return raw
}

type EventsView struct {
	View
	Events []models.Event `json:"events"`
}

func (p *EventsPage) View(query string) EventsView {
	state, err := p.State()
	return EventsView{View: viewOf(state, err), Events: p.Search(query)}
}
