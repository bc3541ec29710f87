package cafeapi

import (
	"context"
	"net/http"

	"github.com/ray-remotestate/cafedash/models"
)

func (c *Client) ListCafes(ctx context.Context, sess *models.Session, page, size int) (*models.Page[models.Cafe], error) {
	var out models.Page[models.Cafe]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/cafes",
		query:    pageQuery(page, size),
		sess:     sess,
		auth:     authOptional,
		fallback: "Failed to fetch cafes",
		resource: "cafes",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCafe(ctx context.Context, sess *models.Session, slug string) (*models.Cafe, error) {
	var cafe models.Cafe
	err := c.do(ctx, request{
		method:   http.MethodGet,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     "/cafes/" + pathEscape(slug),
		sess:     sess,
		auth:     authOptional,
		fallback: "Failed to fetch cafe data",
		resource: "cafe",
	}, &cafe)
	if err != nil {
		return nil, err
	}
	return &cafe, nil
}

// UpdateCafe sends a partial update; only non-nil fields reach the upstream.
func (c *Client) UpdateCafe(ctx context.Context, sess *models.Session, slug string, payload models.CafeUpdate) (*models.Cafe, error) {
	var cafe models.Cafe
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     "/cafes/" + pathEscape(slug),
		body:     payload,
		sess:     sess,
		fallback: "Failed to update cafe",
		resource: "cafe",
	}, &cafe)
	if err != nil {
		return nil, err
	}
	return &cafe, nil
}
