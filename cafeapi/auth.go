package cafeapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/ray-remotestate/cafedash/models"
)

// InvalidCredentials is the only message a failed login ever surfaces.
const InvalidCredentials = "Invalid username or password"

// Login exchanges credentials for tokens through the OAuth2 password grant.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Tokens, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", "")
	form.Set("client_id", "string")
	form.Set("client_secret", "string")

	var tokens models.Tokens
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/auth/login",
		form:     form,
		auth:     authNone,
		fallback: "Login failed. Please try again.",
		resource: "login",
	}, &tokens)
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return nil, &UpstreamError{Status: upstream.Status, Message: InvalidCredentials}
	}
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Me fetches the profile of the session's user.
func (c *Client) Me(ctx context.Context, sess *models.Session) (*models.User, error) {
	var user models.User
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/users/@me",
		sess:     sess,
		fallback: "Failed to fetch user data",
		resource: "user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateMe(ctx context.Context, sess *models.Session, payload models.UserUpdate) (*models.User, error) {
	var user models.User
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     "/users/@me",
		body:     payload,
		sess:     sess,
		fallback: "Failed to update user",
		resource: "user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
