package gateway

import (
	"context"
	"net/http"

	"moodflix-client/internal/model"
)

// CurrentUser returns the user owning the session cookie, or an UNAUTHORIZED/FORBIDDEN error.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var user model.User
	err := c.do(ctx, request{method: http.MethodGet, path: "user/", endpoint: "user"}, &user)
	return user, err
}

// Login only confirms the credentials; the session payload comes from CurrentUser.
func (c *Client) Login(ctx context.Context, creds model.Credentials) error {
	return c.do(ctx, request{method: http.MethodPost, path: "login/", endpoint: "login", body: creds}, nil)
}

// Logout ends the server session. Without a session cookie there is nothing to
// end and no request is sent.
func (c *Client) Logout(ctx context.Context) error {
	if !c.HasSessionCookie() {
		return nil
	}
	return c.do(ctx, request{method: http.MethodPost, path: "logout/", endpoint: "logout"}, nil)
}

func (c *Client) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	var user model.User
	err := c.do(ctx, request{method: http.MethodPost, path: "register/", endpoint: "register", body: reg}, &user)
	return user, err
}
