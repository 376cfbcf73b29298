package gateway

import (
	"context"
	"fmt"
	"net/http"

	"moodflix-client/internal/model"
)

// Admin endpoints are authorised server-side; the client only routes to them.

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	err := c.do(ctx, request{method: http.MethodGet, path: "admin/users/", endpoint: "admin_users"}, &users)
	return users, err
}

func (c *Client) GetUser(ctx context.Context, userID int) (model.User, error) {
	var user model.User
	err := c.do(ctx, request{method: http.MethodGet, path: adminUserPath(userID), endpoint: "admin_user"}, &user)
	return user, err
}

func (c *Client) UpdateUserRole(ctx context.Context, userID int, update model.RoleUpdate) (model.User, error) {
	var user model.User
	err := c.do(ctx, request{method: http.MethodPatch, path: adminUserPath(userID), endpoint: "admin_user", body: update}, &user)
	return user, err
}

func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: adminUserPath(userID), endpoint: "admin_user"}, nil)
}

func (c *Client) Stats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := c.do(ctx, request{method: http.MethodGet, path: "admin/stats/", endpoint: "admin_stats"}, &stats)
	return stats, err
}

func adminUserPath(userID int) string {
	return fmt.Sprintf("admin/users/%d/", userID)
}
