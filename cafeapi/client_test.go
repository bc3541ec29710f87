package cafeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/cafedash/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), &calls
}

func authed() *models.Session {
	return &models.Session{AccessToken: "token-123"}
}

func TestMutationsWithoutTokenMakeNoCalls(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()
	anon := &models.Session{}

	tests := []struct {
		name string
		call func() error
	}{
		{"update cafe", func() error { _, err := client.UpdateCafe(ctx, anon, "cafe", models.CafeUpdate{}); return err }},
		{"create menu item", func() error {
			_, err := client.CreateMenuItem(ctx, anon, "cafe", models.MenuItemInput{Name: "Latte"})
			return err
		}},
		{"update menu item", func() error {
			_, err := client.UpdateMenuItem(ctx, anon, "cafe", "x", models.MenuItemUpdate{})
			return err
		}},
		{"delete menu item", func() error { return client.DeleteMenuItem(ctx, anon, "cafe", "x") }},
		{"toggle highlight", func() error { _, err := client.ToggleHighlight(ctx, anon, "cafe", "x"); return err }},
		{"create category", func() error {
			_, err := client.CreateCategory(ctx, anon, "cafe", models.CategoryInput{Name: "Drinks"})
			return err
		}},
		{"update category", func() error {
			_, err := client.UpdateCategory(ctx, anon, "cafe", "c", models.CategoryInput{Name: "Drinks"})
			return err
		}},
		{"delete category", func() error { return client.DeleteCategory(ctx, anon, "cafe", "c") }},
		{"create event", func() error { _, err := client.CreateEvent(ctx, anon, models.EventInput{Name: "Jam"}); return err }},
		{"update event", func() error { _, err := client.UpdateEvent(ctx, anon, "e", models.EventUpdate{}); return err }},
		{"delete event", func() error { return client.DeleteEvent(ctx, anon, "e") }},
		{"create announcement", func() error {
			_, err := client.CreateAnnouncement(ctx, anon, "cafe", models.AnnouncementInput{Title: "Hi"})
			return err
		}},
		{"update announcement", func() error {
			_, err := client.UpdateAnnouncement(ctx, anon, "cafe", "a", models.AnnouncementInput{Title: "Hi"})
			return err
		}},
		{"delete announcement", func() error { return client.DeleteAnnouncement(ctx, anon, "cafe", "a") }},
		{"send notification", func() error { return client.SendNotification(ctx, anon, models.Notification{Title: "t"}) }},
		{"update me", func() error { _, err := client.UpdateMe(ctx, anon, models.UserUpdate{}); return err }},
		{"nil session", func() error { return client.DeleteEvent(ctx, nil, "e") }},
		{"empty slug", func() error {
			_, err := client.CreateMenuItem(ctx, anon, "", models.MenuItemInput{Name: "Latte"})
			return err
		}},
		{"empty item id", func() error { return client.DeleteMenuItem(ctx, anon, "cafe", " ") }},
		{"empty event id, nil session", func() error { return client.DeleteEvent(ctx, nil, "") }},
		{"empty announcement id", func() error {
			_, err := client.UpdateAnnouncement(ctx, anon, "", "", models.AnnouncementInput{})
			return err
		}},
		{"empty cafe slug", func() error { _, err := client.UpdateCafe(ctx, anon, "", models.CafeUpdate{}); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorIs(t, err, ErrNotAuthenticated)
			assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestExpiredTokenCountsAsAbsent(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)

	err = client.DeleteEvent(context.Background(), &models.Session{AccessToken: token}, "e")
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestMissingIdentifiersAreValidationErrors(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateMenuItem(context.Background(), authed(), " ", models.MenuItemInput{})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "slug", validation.Field)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	_, err = client.ListMenuItems(context.Background(), &models.Session{}, "", 1, 50)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "slug", validation.Field)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCreateMenuItem(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cafes/cafe-central/menu/items", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{}, body["category_ids"])
		body["id"] = "item-1"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})

	item, err := client.CreateMenuItem(context.Background(), authed(), "cafe-central", models.MenuItemInput{
		Name:  "Latte",
		Price: 4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "Latte", item.Name)
	assert.InDelta(t, 4.5, item.Price, 0.0001)
}

func TestUpstreamErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail string", http.StatusForbidden, `{"detail":"Not the owner"}`, "Not the owner"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","name"],"msg":"field required","type":"missing"},{"msg":"price too low"}]}`, "field required; price too low"},
		{"error field", http.StatusConflict, `{"error":"duplicate"}`, "duplicate"},
		{"message field", http.StatusBadRequest, `{"message":"bad"}`, "bad"},
		{"unparsable", http.StatusInternalServerError, `<html>oops</html>`, "Failed to update event"},
		{"empty", http.StatusBadGateway, ``, "Failed to update event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := client.UpdateEvent(context.Background(), authed(), "e", models.EventUpdate{})

			var upstream *UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.status, upstream.Status)
			assert.Equal(t, tt.wantMsg, upstream.Message)
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := New(srv.URL, srv.Client())
	srv.Close()

	err := client.DeleteMenuItem(context.Background(), authed(), "cafe", "x")
	var network *NetworkError
	require.ErrorAs(t, err, &network)
	assert.Equal(t, "Failed to delete menu item", network.Error())
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestSchemaError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items": "not-a-list"}`)
	})

	_, err := client.ListMenuItems(context.Background(), authed(), "cafe", 1, 50)
	var schema *SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Equal(t, "menu items", schema.Resource)
}

func TestLogin(t *testing.T) {
	t.Run("password grant", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/login", r.URL.Path)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			assert.Empty(t, r.Header.Get("Authorization"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.PostForm.Get("grant_type"))
			assert.Equal(t, "owner", r.PostForm.Get("username"))
			assert.Equal(t, "s3cret", r.PostForm.Get("password"))
			io.WriteString(w, `{"access_token":"a","refresh_token":"r","token_type":"bearer"}`)
		})

		tokens, err := client.Login(context.Background(), "owner", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, models.Tokens{AccessToken: "a", RefreshToken: "r", TokenType: "bearer"}, *tokens)
	})

	t.Run("wrong password", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Incorrect username or password"}`)
		})

		_, err := client.Login(context.Background(), "admin", "wrongpass")
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusUnauthorized, upstream.Status)
		assert.Equal(t, InvalidCredentials, upstream.Message)
	})
}

func TestOptionalAuthReads(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"id":"c1","slug":"cafe","name":"Café"}`)
	})

	cafe, err := client.GetCafe(context.Background(), nil, "cafe")
	require.NoError(t, err)
	assert.Equal(t, "Café", cafe.Name)
}

func TestListEventsNotFoundIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"No events"}`)
	})

	events, err := client.ListEvents(context.Background(), authed())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}

func TestListAnnouncementsQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/announcements", r.URL.Path)
		assert.Equal(t, "cafe-1", r.URL.Query().Get("cafe_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		io.WriteString(w, `{"items":[{"id":"a1","title":"Open late","tags":["news"]}],"total":11,"page":2,"size":10,"pages":2}`)
	})

	page, err := client.ListAnnouncements(context.Background(), authed(), "cafe-1", 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a1", page.Items[0].ID)
	assert.False(t, page.HasNext())
}

// pagedItems serves total items named item-0..item-(total-1) with the
// upstream's page/size semantics.
func pagedItems(total int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		pages := (total + size - 1) / size
		out := models.Page[models.MenuItem]{Total: total, Page: page, Size: size, Pages: pages}
		for i := (page - 1) * size; i < page*size && i < total; i++ {
			out.Items = append(out.Items, models.MenuItem{ID: fmt.Sprintf("item-%d", i)})
		}
		json.NewEncoder(w).Encode(out)
	}
}

func TestPagesDoNotOverlap(t *testing.T) {
	client, _ := newTestClient(t, pagedItems(45))
	ctx := context.Background()

	first, err := client.ListMenuItems(ctx, authed(), "cafe", 1, 20)
	require.NoError(t, err)
	second, err := client.ListMenuItems(ctx, authed(), "cafe", 2, 20)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, item := range first.Items {
		seen[item.ID] = true
	}
	require.Len(t, second.Items, 20)
	for _, item := range second.Items {
		assert.False(t, seen[item.ID], "item %s returned on both pages", item.ID)
	}
}

func TestPaginate(t *testing.T) {
	client, calls := newTestClient(t, pagedItems(45))

	all, err := Paginate(context.Background(), 20, func(m models.MenuItem) string { return m.ID },
		func(ctx context.Context, page, size int) (*models.Page[models.MenuItem], error) {
			return client.ListMenuItems(ctx, authed(), "cafe", page, size)
		})
	require.NoError(t, err)
	assert.Len(t, all, 45)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestPaginateStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Paginate(context.Background(), 20, func(m models.MenuItem) string { return m.ID },
		func(ctx context.Context, page, size int) (*models.Page[models.MenuItem], error) {
			return nil, boom
		})
	assert.ErrorIs(t, err, boom)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "nope", ErrorMessage([]byte(`{"detail":"nope"}`)))
	assert.Equal(t, "", ErrorMessage([]byte(`not json`)))
	assert.Equal(t, "", ErrorMessage([]byte(`{"detail":{"nested":true}}`)))
}
