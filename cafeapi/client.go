// Package cafeapi is the typed client of the external café REST API.
//
// Every call takes the caller's session explicitly. Mutations refuse to run
// without an access token and never touch any local state.
package cafeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ray-remotestate/cafedash/models"
	"github.com/ray-remotestate/cafedash/utils"
)

const DefaultBaseURL = "https://api.cafesansfil.ca/v1"

type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method   string
	path     string
	ids      []pathID
	query    url.Values
	body     any
	form     url.Values
	sess     *models.Session
	auth     authMode
	fallback string
	resource string
}

type authMode int

const (
	authRequired authMode = iota
	authOptional
	authNone
)

// token resolves the bearer token for a request. Expired JWTs count as
// absent so a stale session fails fast instead of bouncing off the upstream.
func (c *Client) token(sess *models.Session) string {
	token := sess.Token()
	if token == "" || utils.TokenExpired(token, c.now()) {
		return ""
	}
	return token
}

// do issues one request and decodes a 2xx body into out (when non-nil).
// A missing token is reported before a missing identifier.
func (c *Client) do(ctx context.Context, req request, out any) error {
	token := ""
	if req.auth != authNone {
		token = c.token(req.sess)
		if token == "" && req.auth == authRequired {
			return ErrNotAuthenticated
		}
	}
	for _, id := range req.ids {
		if strings.TrimSpace(id.value) == "" {
			return missing(id.field, id.message)
		}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", req.resource, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.resource, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &NetworkError{Message: req.fallback, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Message: req.fallback, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ErrorMessage(raw)
		if msg == "" {
			msg = req.fallback
		}
		return &UpstreamError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &SchemaError{Resource: req.resource, Err: err}
	}
	return nil
}

// ErrorMessage extracts the server-supplied message of an error body. It
// understands {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"error": "..."}
// and {"message": "..."}, and returns "" for anything else.
func ErrorMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	for _, field := range []json.RawMessage{envelope.Detail, envelope.Error, envelope.Message} {
		if msg := rawMessage(field); msg != "" {
			return msg
		}
	}
	return ""
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var details []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &details); err == nil {
		msgs := make([]string, 0, len(details))
		for _, d := range details {
			if d.Msg != "" {
				msgs = append(msgs, d.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if size > 0 {
		q.Set("size", fmt.Sprint(size))
	}
	return q
}

// pathID is an identifier a request interpolates into its path. Blank ones
// are rejected after the token check and before any network call.
type pathID struct {
	field   string
	value   string
	message string
}

// pathEscape keeps identifiers from breaking out of their path segment.
func pathEscape(s string) string {
	return url.PathEscape(s)
}
