package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/cafedash/utils"
)

func pathVar(r *http.Request, name string) string {
	return url.PathEscape(mux.Vars(r)[name])
}

// pageParams copies page and size from the request, falling back to the
// given defaults.
func pageParams(r *http.Request, page, size string) url.Values {
	q := url.Values{}
	q.Set("page", page)
	q.Set("size", size)
	if v := r.URL.Query().Get("page"); v != "" {
		q.Set("page", v)
	}
	if v := r.URL.Query().Get("size"); v != "" {
		q.Set("size", v)
	}
	return q
}

// users

func (rl *Relay) GetMe(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/users/@me", fallback: "Failed to fetch user data"})
}

func (rl *Relay) UpdateMe(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPut, path: "/users/@me", body: true, fallback: "Failed to update user"})
}

// cafés

func (rl *Relay) ListCafes(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/cafes", query: pageParams(r, "1", "20"), fallback: "Failed to fetch cafes"})
}

func (rl *Relay) GetCafe(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/cafes/" + pathVar(r, "slug"), fallback: "Failed to fetch cafe data"})
}

func (rl *Relay) UpdateCafe(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPut, path: "/cafes/" + pathVar(r, "slug"), body: true, fallback: "Failed to update cafe"})
}

// menu items

func (rl *Relay) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodGet,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/items",
		query:    pageParams(r, "1", "50"),
		fallback: "Failed to fetch menu items",
	})
}

func (rl *Relay) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodPost,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/items",
		body:     true,
		fallback: "Failed to create menu item",
	})
}

func (rl *Relay) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodPut,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/items/" + pathVar(r, "itemId"),
		body:     true,
		fallback: "Failed to update menu item",
	})
}

func (rl *Relay) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodDelete,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/items/" + pathVar(r, "itemId"),
		fallback: "Failed to delete menu item",
	})
}

func (rl *Relay) ToggleHighlight(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodPut,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/items/" + pathVar(r, "itemId") + "/toggle-highlight",
		fallback: "Failed to toggle highlight",
	})
}

// categories

func (rl *Relay) ListCategories(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/cafes/" + pathVar(r, "slug") + "/menu/categories", fallback: "Failed to fetch categories"})
}

func (rl *Relay) CreateCategory(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodPost,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/categories",
		body:     true,
		fallback: "Failed to create category",
	})
}

func (rl *Relay) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodPut,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/categories/" + pathVar(r, "categoryId"),
		body:     true,
		fallback: "Failed to update category",
	})
}

func (rl *Relay) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{
		method:   http.MethodDelete,
		path:     "/cafes/" + pathVar(r, "slug") + "/menu/categories/" + pathVar(r, "categoryId"),
		fallback: "Failed to delete category",
	})
}

// events

func (rl *Relay) ListEvents(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/events", fallback: "Failed to fetch events"})
}

func (rl *Relay) CreateEvent(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPost, path: "/events", body: true, fallback: "Failed to create event"})
}

func (rl *Relay) GetEvent(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodGet, path: "/events/" + pathVar(r, "id"), fallback: "Failed to fetch event"})
}

func (rl *Relay) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPut, path: "/events/" + pathVar(r, "id"), body: true, fallback: "Failed to update event"})
}

func (rl *Relay) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodDelete, path: "/events/" + pathVar(r, "id"), fallback: "Failed to delete event"})
}

// announcements

func (rl *Relay) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	for _, key := range []string{"cafe_id", "page", "size"} {
		if v := r.URL.Query().Get(key); v != "" {
			q.Set(key, v)
		}
	}
	rl.forward(w, r, forward{method: http.MethodGet, path: "/announcements", query: q, fallback: "Failed to fetch announcements"})
}

// slugParam reads the café slug from the query string and answers 400 when
// it is missing.
func slugParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		utils.WriteError(w, http.StatusBadRequest, "Cafe slug is required")
		return "", false
	}
	return url.PathEscape(slug), true
}

func (rl *Relay) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r)
	if !ok {
		return
	}
	rl.forward(w, r, forward{method: http.MethodPost, path: "/cafes/" + slug + "/announcements", body: true, fallback: "Failed to create announcement"})
}

func (rl *Relay) CreateAnnouncementForCafe(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPost, path: "/cafes/" + pathVar(r, "slug") + "/announcements", body: true, fallback: "Failed to create announcement"})
}

func (rl *Relay) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r)
	if !ok {
		return
	}
	rl.forward(w, r, forward{
		method:   http.MethodPut,
		path:     "/cafes/" + slug + "/announcements/" + pathVar(r, "id"),
		body:     true,
		fallback: "Failed to update announcement",
	})
}

func (rl *Relay) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	slug, ok := slugParam(w, r)
	if !ok {
		return
	}
	rl.forward(w, r, forward{
		method:   http.MethodDelete,
		path:     "/cafes/" + slug + "/announcements/" + pathVar(r, "id"),
		fallback: "Failed to delete announcement",
	})
}

// notifications

func (rl *Relay) SendNotification(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, forward{method: http.MethodPost, path: "/notifications/send", body: true, fallback: "Failed to send notification"})
}
