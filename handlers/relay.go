package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
	"github.com/ray-remotestate/cafedash/imagehost"
	"github.com/ray-remotestate/cafedash/middlewares"
	"github.com/ray-remotestate/cafedash/utils"
)

const maxUploadSize = 32 << 20

// Relay forwards browser requests under /api to the café API unchanged.
type Relay struct {
	api        *cafeapi.Client
	httpClient *http.Client
	images     *imagehost.Uploader
}

func NewRelay(api *cafeapi.Client, httpClient *http.Client, images *imagehost.Uploader) *Relay {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Relay{api: api, httpClient: httpClient, images: images}
}

type forward struct {
	method   string
	path     string
	query    url.Values
	body     bool
	fallback string
}

// forward relays one request. 2xx answers are passed through verbatim,
// except DELETE which answers {"success": true}.
func (rl *Relay) forward(w http.ResponseWriter, r *http.Request, f forward) {
	var body io.Reader
	if f.body {
		raw, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(raw) {
			utils.WriteError(w, http.StatusBadRequest, "invalid request")
			return
		}
		body = bytes.NewReader(raw)
	}

	u := rl.api.BaseURL() + f.path
	if len(f.query) > 0 {
		u += "?" + f.query.Encode()
	}
	req, err := http.NewRequestWithContext(r.Context(), f.method, u, body)
	if err != nil {
		logrus.WithError(err).Error("failed to build upstream request")
		utils.WriteError(w, http.StatusInternalServerError, f.fallback)
		return
	}
	req.Header.Set("Accept", "application/json")
	if f.body {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := middlewares.BearerToken(r); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := rl.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("path", f.path).Error("upstream request failed")
		utils.WriteError(w, http.StatusInternalServerError, f.fallback)
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.WithError(err).WithField("path", f.path).Error("failed to read upstream response")
		utils.WriteError(w, http.StatusInternalServerError, f.fallback)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := cafeapi.ErrorMessage(raw)
		if msg == "" {
			msg = f.fallback
		}
		logrus.WithFields(logrus.Fields{"path": f.path, "status": resp.StatusCode}).Warnf("upstream error: %s", msg)
		utils.WriteError(w, resp.StatusCode, msg)
		return
	}

	if f.method == http.MethodDelete {
		utils.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(raw); err != nil {
		logrus.WithError(err).Error("failed to write relayed response")
	}
}

// Login turns a JSON {username, password} into the upstream password grant.
func (rl *Relay) Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	tokens, err := rl.api.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var upstream *cafeapi.UpstreamError
		if errors.As(err, &upstream) {
			utils.WriteError(w, upstream.Status, upstream.Message)
			return
		}
		logrus.WithError(err).Error("login relay failed")
		utils.WriteError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}
	utils.WriteJSON(w, http.StatusOK, tokens)
}

// UploadImage stores the multipart "file" on the image host and answers
// with its public URL.
func (rl *Relay) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !rl.images.Configured() {
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

	publicURL, err := rl.images.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "url": publicURL})
}

func writeUploadError(w http.ResponseWriter, err error) {
	var upstream *cafeapi.UpstreamError
	switch {
	case errors.As(err, &upstream):
		utils.WriteError(w, upstream.Status, upstream.Message)
	case errors.Is(err, imagehost.ErrNoPublicURL), errors.Is(err, imagehost.ErrNotConfigured):
		utils.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		logrus.WithError(err).Error("image upload failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to upload image")
	}
}
