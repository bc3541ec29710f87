// Package imagehost uploads café images to Cloudflare Images and hands back
// the public URL.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/cafedash/cafeapi"
)

const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

var (
	ErrNotConfigured = errors.New("Cloudflare credentials not configured")
	ErrNoPublicURL   = errors.New("No public variant URL in response")
)

const uploadFailed = "Failed to upload image to Cloudflare"

type Uploader struct {
	baseURL    string
	accountID  string
	apiToken   string
	httpClient *http.Client
}

func New(baseURL, accountID, apiToken string, httpClient *http.Client) *Uploader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Uploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  accountID,
		apiToken:   apiToken,
		httpClient: httpClient,
	}
}

func (u *Uploader) Configured() bool {
	return u != nil && u.accountID != "" && u.apiToken != ""
}

type uploadResponse struct {
	Success bool `json:"success"`
	Result  struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	} `json:"result"`
}

// Upload posts the image and returns its public variant URL. The second
// variant Cloudflare lists is the public one.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	if !u.Configured() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if err := form.WriteField("requireSignedURLs", "false"); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.WriteField("metadata", `{"key":"cafe_image"}`); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/images/v1", u.baseURL, u.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.apiToken)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", &cafeapi.NetworkError{Message: "Failed to upload image", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &cafeapi.NetworkError{Message: "Failed to upload image", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithField("status", resp.StatusCode).Errorf("cloudflare upload error: %s", raw)
		return "", &cafeapi.UpstreamError{Status: resp.StatusCode, Message: uploadFailed}
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &cafeapi.SchemaError{Resource: "image upload", Err: err}
	}
	if len(out.Result.Variants) < 2 {
		return "", ErrNoPublicURL
	}
	logrus.WithField("image", out.Result.ID).Debug("image uploaded")
	return out.Result.Variants[1], nil
}
