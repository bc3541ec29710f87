package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/cafedash/handlers"
	"github.com/ray-remotestate/cafedash/middlewares"
	"github.com/ray-remotestate/cafedash/session"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

// SetupRoutes wires every route and builds the http.Server listening on addr.
func SetupRoutes(addr string, relay *handlers.Relay, dash *handlers.Dashboard, sessions *session.Manager) *Server {
	router := mux.NewRouter()
	router.Use(middlewares.RequestLogger)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	// proxy relay
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", relay.Login).Methods("POST")
	api.HandleFunc("/images/upload", relay.UploadImage).Methods("POST")

	public := api.NewRoute().Subrouter()
	public.Use(middlewares.OptionalBearer)
	public.HandleFunc("/cafes", relay.ListCafes).Methods("GET")
	public.HandleFunc("/cafes/{slug}", relay.GetCafe).Methods("GET")
	public.HandleFunc("/cafes/{slug}/menu/items", relay.ListMenuItems).Methods("GET")
	public.HandleFunc("/cafes/{slug}/menu/categories", relay.ListCategories).Methods("GET")
	public.HandleFunc("/events/{id}", relay.GetEvent).Methods("GET")

	authRoutes := api.NewRoute().Subrouter()
	authRoutes.Use(middlewares.RequireBearer)
	authRoutes.HandleFunc("/users/me", relay.GetMe).Methods("GET")
	authRoutes.HandleFunc("/users/@me", relay.GetMe).Methods("GET")
	authRoutes.HandleFunc("/users/@me", relay.UpdateMe).Methods("PUT")

	authRoutes.HandleFunc("/cafes/{slug}", relay.UpdateCafe).Methods("PUT")
	authRoutes.HandleFunc("/cafes/{slug}/update", relay.UpdateCafe).Methods("PUT")
	authRoutes.HandleFunc("/cafes/{slug}/menu/items", relay.CreateMenuItem).Methods("POST")
	authRoutes.HandleFunc("/cafes/{slug}/menu/items/{itemId}", relay.UpdateMenuItem).Methods("PUT")
	authRoutes.HandleFunc("/cafes/{slug}/menu/items/{itemId}", relay.DeleteMenuItem).Methods("DELETE")
	authRoutes.HandleFunc("/cafes/{slug}/menu/items/{itemId}/toggle-highlight", relay.ToggleHighlight).Methods("PUT")
	authRoutes.HandleFunc("/cafes/{slug}/menu/categories", relay.CreateCategory).Methods("POST")
	authRoutes.HandleFunc("/cafes/{slug}/menu/categories/{categoryId}", relay.UpdateCategory).Methods("PUT")
	authRoutes.HandleFunc("/cafes/{slug}/menu/categories/{categoryId}", relay.DeleteCategory).Methods("DELETE")

	authRoutes.HandleFunc("/events", relay.ListEvents).Methods("GET")
	authRoutes.HandleFunc("/events", relay.CreateEvent).Methods("POST")
	authRoutes.HandleFunc("/events/{id}", relay.UpdateEvent).Methods("PUT")
	authRoutes.HandleFunc("/events/{id}", relay.DeleteEvent).Methods("DELETE")

	authRoutes.HandleFunc("/announcements", relay.ListAnnouncements).Methods("GET")
	authRoutes.HandleFunc("/announcements", relay.CreateAnnouncement).Methods("POST")
	authRoutes.HandleFunc("/announcements/{slug}", relay.CreateAnnouncementForCafe).Methods("POST")
	authRoutes.HandleFunc("/announcements/{id}", relay.UpdateAnnouncement).Methods("PUT")
	authRoutes.HandleFunc("/announcements/{id}", relay.DeleteAnnouncement).Methods("DELETE")

	authRoutes.HandleFunc("/notifications/send", relay.SendNotification).Methods("POST")

	// dashboard
	router.HandleFunc("/login", dash.Login).Methods("POST")
	router.HandleFunc("/logout", dash.Logout).Methods("POST")

	board := router.PathPrefix("/dashboard").Subrouter()
	board.Use(middlewares.RequireSession(sessions))
	board.HandleFunc("/me", dash.GetMe).Methods("GET")
	board.HandleFunc("/me", dash.UpdateMe).Methods("PUT")

	board.HandleFunc("/cafe", dash.GetCafe).Methods("GET")
	board.HandleFunc("/cafe/{section}", dash.UpdateCafeSection).Methods("PUT")

	board.HandleFunc("/menu", dash.GetMenu).Methods("GET")
	board.HandleFunc("/menu/items", dash.CreateMenuItem).Methods("POST")
	board.HandleFunc("/menu/items/{id}", dash.UpdateMenuItem).Methods("PUT")
	board.HandleFunc("/menu/items/{id}", dash.DeleteMenuItem).Methods("DELETE")
	board.HandleFunc("/menu/items/{id}/highlight", dash.ToggleHighlight).Methods("PUT")
	board.HandleFunc("/menu/categories", dash.CreateCategory).Methods("POST")

	board.HandleFunc("/events", dash.GetEvents).Methods("GET")
	board.HandleFunc("/events", dash.CreateEvent).Methods("POST")
	board.HandleFunc("/events/{id}", dash.UpdateEvent).Methods("PUT")
	board.HandleFunc("/events/{id}", dash.DeleteEvent).Methods("DELETE")

	board.HandleFunc("/announcements", dash.GetAnnouncements).Methods("GET")
	board.HandleFunc("/announcements", dash.CreateAnnouncement).Methods("POST")
	board.HandleFunc("/announcements/{id}", dash.UpdateAnnouncement).Methods("PUT")
	board.HandleFunc("/announcements/{id}", dash.DeleteAnnouncement).Methods("DELETE")

	board.HandleFunc("/images", dash.UploadImage).Methods("POST")

	return &Server{
		Router: router,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
		},
	}
}

// Run blocks until the server stops. After Shutdown it returns
// http.ErrServerClosed, even if Shutdown came first.
func (svr *Server) Run() error {
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
