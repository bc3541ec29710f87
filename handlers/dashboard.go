package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/dashboard"
	"github.com/ray-remotestate/cafedash/imagehost"
	"github.com/ray-remotestate/cafedash/middlewares"
	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/reconcile"
	"github.com/ray-remotestate/cafedash/session"
	"github.com/ray-remotestate/cafedash/utils"
)

// Dashboard serves the cookie-session routes the dashboard pages use.
type Dashboard struct {
	sessions *session.Manager
	registry *dashboard.Registry
	images   *imagehost.Uploader
}

func NewDashboard(sessions *session.Manager, registry *dashboard.Registry, images *imagehost.Uploader) *Dashboard {
	return &Dashboard{sessions: sessions, registry: registry, images: images}
}

func writeDashboardError(w http.ResponseWriter, err error) {
	status := dashboard.StatusCode(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Error("dashboard request failed")
	}
	utils.WriteError(w, status, err.Error())
}

// current returns the session and its workspace. RequireSession has already
// rejected requests without one.
func (d *Dashboard) current(w http.ResponseWriter, r *http.Request) (*models.Session, *dashboard.Workspace, bool) {
	sess, err := middlewares.GetSession(r)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, cafeapi.ErrNotAuthenticated.Error())
		return nil, nil, false
	}
	return sess, d.registry.Workspace(sess.ID), true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// writeView answers a page snapshot, with the load error's status when the
// page failed to load.
func writeView(w http.ResponseWriter, state reconcile.State, err error, view any) {
	status := http.StatusOK
	if state == reconcile.Failed && err != nil {
		status = dashboard.StatusCode(err)
	}
	utils.WriteJSON(w, status, view)
}

func (d *Dashboard) Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req request
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !decode(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid request")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	sess, err := d.sessions.Login(w, r, req.Username, req.Password)
	if err != nil {
		var upstream *cafeapi.UpstreamError
		if errors.As(err, &upstream) {
			utils.WriteError(w, upstream.Status, cafeapi.InvalidCredentials)
			return
		}
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"user": sess.User})
}

func (d *Dashboard) Logout(w http.ResponseWriter, r *http.Request) {
	id, err := d.sessions.Logout(w, r)
	if err != nil {
		logrus.WithError(err).Error("failed to log out")
	}
	d.registry.Drop(id)
	http.Redirect(w, r, session.LoginPath, http.StatusSeeOther)
}

func (d *Dashboard) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := d.current(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"user": sess.User})
}

func (d *Dashboard) UpdateMe(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var update models.UserUpdate
	if !decode(w, r, &update) {
		return
	}
	user, err := ws.Profile.UpdateProfile(r.Context(), sess, update)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// café profile

func (d *Dashboard) GetCafe(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		_ = ws.Cafe.Init(r.Context(), sess)
	} else {
		_ = ws.Cafe.Ensure(r.Context(), sess)
	}
	state, err := ws.Cafe.State()
	writeView(w, state, err, ws.Cafe.View())
}

func (d *Dashboard) UpdateCafeSection(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	section := dashboard.Section(mux.Vars(r)["section"])
	if !section.IsValid() {
		utils.WriteError(w, http.StatusNotFound, "unknown section")
		return
	}
	var update models.CafeUpdate
	if !decode(w, r, &update) {
		return
	}
	if err := ws.Cafe.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	cafe, err := ws.Cafe.Save(r.Context(), sess, section, update)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cafe)
}

// menu

func (d *Dashboard) GetMenu(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		_ = ws.Menu.Init(r.Context(), sess)
	} else {
		_ = ws.Menu.Ensure(r.Context(), sess)
	}
	state, err := ws.Menu.State()
	writeView(w, state, err, ws.Menu.View(r.URL.Query().Get("q")))
}

func (d *Dashboard) saveMenuItem(w http.ResponseWriter, r *http.Request, id string) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var form dashboard.MenuItemForm
	if !decode(w, r, &form) {
		return
	}
	if err := ws.Menu.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	item, err := ws.Menu.Save(r.Context(), sess, id, form)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	utils.WriteJSON(w, status, item)
}

func (d *Dashboard) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	d.saveMenuItem(w, r, "")
}

func (d *Dashboard) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	d.saveMenuItem(w, r, mux.Vars(r)["id"])
}

func (d *Dashboard) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if err := ws.Menu.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	if err := ws.Menu.Delete(r.Context(), sess, mux.Vars(r)["id"]); err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (d *Dashboard) ToggleHighlight(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if err := ws.Menu.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	item, err := ws.Menu.ToggleHighlight(r.Context(), sess, mux.Vars(r)["id"])
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, item)
}

func (d *Dashboard) CreateCategory(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var input models.CategoryInput
	if !decode(w, r, &input) {
		return
	}
	if err := ws.Menu.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	category, err := ws.Menu.CreateCategory(r.Context(), sess, input)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, category)
}

// events

func (d *Dashboard) GetEvents(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		_ = ws.Events.Init(r.Context(), sess)
	} else {
		_ = ws.Events.Ensure(r.Context(), sess)
	}
	state, err := ws.Events.State()
	writeView(w, state, err, ws.Events.View(r.URL.Query().Get("q")))
}

func (d *Dashboard) saveEvent(w http.ResponseWriter, r *http.Request, id string) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var form dashboard.EventForm
	if !decode(w, r, &form) {
		return
	}
	if err := ws.Events.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	event, err := ws.Events.Save(r.Context(), sess, id, form)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	utils.WriteJSON(w, status, event)
}

func (d *Dashboard) CreateEvent(w http.ResponseWriter, r *http.Request) {
	d.saveEvent(w, r, "")
}

func (d *Dashboard) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	d.saveEvent(w, r, mux.Vars(r)["id"])
}

func (d *Dashboard) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if err := ws.Events.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	if err := ws.Events.Delete(r.Context(), sess, mux.Vars(r)["id"]); err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// announcements

func (d *Dashboard) GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		_ = ws.Announcements.Init(r.Context(), sess)
	} else {
		_ = ws.Announcements.Ensure(r.Context(), sess)
	}
	state, err := ws.Announcements.State()
	writeView(w, state, err, ws.Announcements.View(r.URL.Query().Get("q")))
}

func (d *Dashboard) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var form dashboard.AnnouncementForm
	if !decode(w, r, &form) {
		return
	}
	if err := ws.Announcements.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	created, err := ws.Announcements.Submit(r.Context(), sess, form)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, created)
}

func (d *Dashboard) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	var form dashboard.AnnouncementForm
	if !decode(w, r, &form) {
		return
	}
	if err := ws.Announcements.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	updated, err := ws.Announcements.Update(r.Context(), sess, mux.Vars(r)["id"], form)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, updated)
}

func (d *Dashboard) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	sess, ws, ok := d.current(w, r)
	if !ok {
		return
	}
	if err := ws.Announcements.Ensure(r.Context(), sess); err != nil {
		writeDashboardError(w, err)
		return
	}
	if err := ws.Announcements.Delete(r.Context(), sess, mux.Vars(r)["id"]); err != nil {
		writeDashboardError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// images

func (d *Dashboard) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !d.images.Configured() {
		utils.WriteError(w, http.StatusInternalServerError, imagehost.ErrNotConfigured.Error())
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	publicURL, err := d.images.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"url": publicURL})
}
