package cafeapi

import (
	"context"
	"net/http"

	"github.com/ray-remotestate/cafedash/models"
)

// ListEvents returns the events visible to the session's user. The upstream
// answers 404 when the user has no events yet; that is an empty list here.
func (c *Client) ListEvents(ctx context.Context, sess *models.Session) ([]models.Event, error) {
	var events []models.Event
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/events",
		sess:     sess,
		fallback: "Failed to fetch events",
		resource: "events",
	}, &events)
	if IsNotFound(err) {
		return []models.Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (c *Client) GetEvent(ctx context.Context, sess *models.Session, eventID string) (*models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		method:   http.MethodGet,
		ids:      []pathID{{"event_id", eventID, "Event id is required"}},
		path:     "/events/" + pathEscape(eventID),
		sess:     sess,
		auth:     authOptional,
		fallback: "Failed to fetch event",
		resource: "event",
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) CreateEvent(ctx context.Context, sess *models.Session, payload models.EventInput) (*models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/events",
		body:     payload,
		sess:     sess,
		fallback: "Failed to create event",
		resource: "event",
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) UpdateEvent(ctx context.Context, sess *models.Session, eventID string, payload models.EventUpdate) (*models.Event, error) {
	var event models.Event
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"event_id", eventID, "Event id is required"}},
		path:     "/events/" + pathEscape(eventID),
		body:     payload,
		sess:     sess,
		fallback: "Failed to update event",
		resource: "event",
	}, &event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, sess *models.Session, eventID string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		ids:      []pathID{{"event_id", eventID, "Event id is required"}},
		path:     "/events/" + pathEscape(eventID),
		sess:     sess,
		fallback: "Failed to delete event",
		resource: "event",
	}, nil)
}
