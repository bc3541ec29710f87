package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/dashboard"
	"github.com/ray-remotestate/cafedash/handlers"
	"github.com/ray-remotestate/cafedash/imagehost"
	"github.com/ray-remotestate/cafedash/session"
)

const (
	ownerUser = `{"id":"u1","username":"owner","email":"owner@cafe.test",
		"cafes":[{"id":"c1","name":"Cafe","slug":"cafe","role":"OWNER"}]}`
	volunteerUser = `{"id":"u2","username":"helper","email":"helper@cafe.test",
		"cafes":[{"id":"c1","name":"Cafe","slug":"cafe","role":"VOLUNTEER"}]}`
)

func cafeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/auth/login":
			r.ParseForm()
			switch r.PostForm.Get("username") + ":" + r.PostForm.Get("password") {
			case "owner:secret":
				w.Write([]byte(`{"access_token":"owner-token","refresh_token":"r","token_type":"bearer"}`))
			case "helper:secret":
				w.Write([]byte(`{"access_token":"helper-token","refresh_token":"r","token_type":"bearer"}`))
			default:
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			}
		case r.URL.Path == "/users/@me":
			switch r.Header.Get("Authorization") {
			case "Bearer owner-token":
				w.Write([]byte(ownerUser))
			case "Bearer helper-token":
				w.Write([]byte(volunteerUser))
			default:
				w.WriteHeader(http.StatusUnauthorized)
			}
		case r.URL.Path == "/cafes/cafe" && r.Method == http.MethodGet:
			w.Write([]byte(`{"id":"c1","name":"Cafe","slug":"cafe"}`))
		case r.URL.Path == "/cafes/cafe/menu/items":
			w.Write([]byte(`{"items":[{"id":"i1","name":"Latte","price":3.5},{"id":"i2","name":"Bagel","price":4}],
				"total":2,"page":1,"size":50,"pages":1}`))
		case r.URL.Path == "/cafes/cafe/menu/categories":
			w.Write([]byte(`{"items":[{"id":"k1","name":"Drinks"}],"total":1,"page":1,"size":50,"pages":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	upstream := cafeUpstream(t)
	api := cafeapi.New(upstream.URL, upstream.Client())
	images := imagehost.New("", "", "", nil)
	sessions := session.NewManager(session.NewMemoryStore(), api, []byte("a-very-secret-session-signing-key"), false)
	return SetupRoutes(
		"127.0.0.1:0",
		handlers.NewRelay(api, upstream.Client(), images),
		handlers.NewDashboard(sessions, dashboard.NewRegistry(api, sessions), images),
		sessions,
	)
}

func do(svr *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	svr.Router.ServeHTTP(w, r)
	return w
}

func login(t *testing.T, svr *Server, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(svr, r)
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestHealth(t *testing.T) {
	svr := newTestServer(t)
	w := do(svr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"alive": true}`, w.Body.String())
}

func TestAPIRouting(t *testing.T) {
	svr := newTestServer(t)

	w := do(svr, httptest.NewRequest(http.MethodGet, "/api/cafes/cafe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"c1","name":"Cafe","slug":"cafe"}`, w.Body.String())

	w = do(svr, httptest.NewRequest(http.MethodPut, "/api/cafes/cafe", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authorization required"}`, w.Body.String())

	w = do(svr, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/events/e404", nil)
	w = do(svr, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestDashboardRequiresSession(t *testing.T) {
	svr := newTestServer(t)
	w := do(svr, httptest.NewRequest(http.MethodGet, "/dashboard/menu", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, w.Body.String())
}

func TestDashboardLoginFailure(t *testing.T) {
	svr := newTestServer(t)
	w := login(t, svr, "admin", "wrongpass")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid username or password"}`, w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestDashboardSessionLifecycle(t *testing.T) {
	svr := newTestServer(t)

	w := login(t, svr, "owner", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, session.CookieName, cookies[0].Name)

	w = do(svr, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/menu?q=lat", nil), cookies))
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		State string `json:"state"`
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "ready", view.State)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Latte", view.Items[0].Name)
	require.Len(t, view.Categories, 1)
	assert.Equal(t, "Drinks", view.Categories[0].Name)

	w = do(svr, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/me", nil), cookies))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"owner"`)

	w = do(svr, withCookies(httptest.NewRequest(http.MethodPost, "/logout", nil), cookies))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, session.LoginPath, w.Header().Get("Location"))

	w = do(svr, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/menu", nil), cookies))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardWithoutOwnedCafe(t *testing.T) {
	svr := newTestServer(t)

	w := login(t, svr, "helper", "secret")
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	w = do(svr, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard/menu", nil), cookies))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"error"`)
	assert.Contains(t, w.Body.String(), dashboard.ErrNoOwnedCafe.Error())
}

func TestShutdownBeforeRunStopsServer(t *testing.T) {
	svr := newTestServer(t)
	require.NoError(t, svr.Shutdown(time.Second))

	done := make(chan error, 1)
	go func() { done <- svr.Run() }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept serving after Shutdown")
	}
}
