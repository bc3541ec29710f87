package cafeapi

import (
	"context"
	"net/http"

	"github.com/ray-remotestate/cafedash/models"
)

func announcementsPath(slug string) string {
	return "/cafes/" + pathEscape(slug) + "/announcements"
}

// ListAnnouncements fetches one page of announcements, narrowed to a café
// when cafeID is set.
func (c *Client) ListAnnouncements(ctx context.Context, sess *models.Session, cafeID string, page, size int) (*models.Page[models.Announcement], error) {
	q := pageQuery(page, size)
	if cafeID != "" {
		q.Set("cafe_id", cafeID)
	}
	var out models.Page[models.Announcement]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/announcements",
		query:    q,
		sess:     sess,
		fallback: "Failed to fetch announcements",
		resource: "announcements",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, sess *models.Session, slug string, payload models.AnnouncementInput) (*models.Announcement, error) {
	if payload.Tags == nil {
		payload.Tags = []string{}
	}
	var announcement models.Announcement
	err := c.do(ctx, request{
		method:   http.MethodPost,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     announcementsPath(slug),
		body:     payload,
		sess:     sess,
		fallback: "Failed to create announcement",
		resource: "announcement",
	}, &announcement)
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (c *Client) UpdateAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string, payload models.AnnouncementInput) (*models.Announcement, error) {
	if payload.Tags == nil {
		payload.Tags = []string{}
	}
	var announcement models.Announcement
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"announcement_id", announcementID, "Announcement id is required"}},
		path:     announcementsPath(slug) + "/" + pathEscape(announcementID),
		body:     payload,
		sess:     sess,
		fallback: "Failed to update announcement",
		resource: "announcement",
	}, &announcement)
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (c *Client) DeleteAnnouncement(ctx context.Context, sess *models.Session, slug, announcementID string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"announcement_id", announcementID, "Announcement id is required"}},
		path:     announcementsPath(slug) + "/" + pathEscape(announcementID),
		sess:     sess,
		fallback: "Failed to delete announcement",
		resource: "announcement",
	}, nil)
}

func (c *Client) SendNotification(ctx context.Context, sess *models.Session, payload models.Notification) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/notifications/send",
		body:     payload,
		sess:     sess,
		fallback: "Failed to send notification",
		resource: "notification",
	}, nil)
}
