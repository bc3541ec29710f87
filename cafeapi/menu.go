package cafeapi

import (
	"context"
	"net/http"

	"github.com/ray-remotestate/cafedash/models"
)

func menuPath(slug string) string {
	return "/cafes/" + pathEscape(slug) + "/menu"
}

func (c *Client) ListMenuItems(ctx context.Context, sess *models.Session, slug string, page, size int) (*models.Page[models.MenuItem], error) {
	var out models.Page[models.MenuItem]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     menuPath(slug) + "/items",
		query:    pageQuery(page, size),
		sess:     sess,
		auth:     authOptional,
		fallback: "Failed to fetch menu items",
		resource: "menu items",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, sess *models.Session, slug string, payload models.MenuItemInput) (*models.MenuItem, error) {
	if payload.CategoryIDs == nil {
		payload.CategoryIDs = []string{}
	}
	var item models.MenuItem
	err := c.do(ctx, request{
		method:   http.MethodPost,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     menuPath(slug) + "/items",
		body:     payload,
		sess:     sess,
		fallback: "Failed to create menu item",
		resource: "menu item",
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, sess *models.Session, slug, itemID string, payload models.MenuItemUpdate) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"item_id", itemID, "Menu item id is required"}},
		path:     menuPath(slug) + "/items/" + pathEscape(itemID),
		body:     payload,
		sess:     sess,
		fallback: "Failed to update menu item",
		resource: "menu item",
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, sess *models.Session, slug, itemID string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"item_id", itemID, "Menu item id is required"}},
		path:     menuPath(slug) + "/items/" + pathEscape(itemID),
		sess:     sess,
		fallback: "Failed to delete menu item",
		resource: "menu item",
	}, nil)
}

// ToggleHighlight flips the highlight flag server-side and returns the item
// as the upstream now stores it.
func (c *Client) ToggleHighlight(ctx context.Context, sess *models.Session, slug, itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"item_id", itemID, "Menu item id is required"}},
		path:     menuPath(slug) + "/items/" + pathEscape(itemID) + "/toggle-highlight",
		sess:     sess,
		fallback: "Failed to toggle highlight",
		resource: "menu item",
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) ListCategories(ctx context.Context, sess *models.Session, slug string) (*models.Page[models.MenuCategory], error) {
	var out models.Page[models.MenuCategory]
	err := c.do(ctx, request{
		method:   http.MethodGet,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     menuPath(slug) + "/categories",
		sess:     sess,
		auth:     authOptional,
		fallback: "Failed to fetch categories",
		resource: "categories",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCategory(ctx context.Context, sess *models.Session, slug string, payload models.CategoryInput) (*models.MenuCategory, error) {
	var category models.MenuCategory
	err := c.do(ctx, request{
		method:   http.MethodPost,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}},
		path:     menuPath(slug) + "/categories",
		body:     payload,
		sess:     sess,
		fallback: "Failed to create category",
		resource: "category",
	}, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) UpdateCategory(ctx context.Context, sess *models.Session, slug, categoryID string, payload models.CategoryInput) (*models.MenuCategory, error) {
	var category models.MenuCategory
	err := c.do(ctx, request{
		method:   http.MethodPut,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"category_id", categoryID, "Category id is required"}},
		path:     menuPath(slug) + "/categories/" + pathEscape(categoryID),
		body:     payload,
		sess:     sess,
		fallback: "Failed to update category",
		resource: "category",
	}, &category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, sess *models.Session, slug, categoryID string) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		ids:      []pathID{{"slug", slug, "Cafe slug is required"}, {"category_id", categoryID, "Category id is required"}},
		path:     menuPath(slug) + "/categories/" + pathEscape(categoryID),
		sess:     sess,
		fallback: "Failed to delete category",
		resource: "category",
	}, nil)
}
