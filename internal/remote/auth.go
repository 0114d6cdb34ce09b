package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

type userPayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (p userPayload) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	user := &domain.User{ID: id, Email: p.Email, Name: p.Name}
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			user.CreatedAt = t
		}
	}
	return user, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	var out struct {
		User userPayload `json:"user"`
	}
	body := map[string]string{"email": email, "name": name, "password": password}
	if err := c.call(ctx, "register", http.MethodPost, "/api/v1/auth/register", body, &out); err != nil {
		return nil, err
	}
	return out.User.toDomain()
}

// Login exchanges credentials for a token, which the client keeps.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	var out struct {
		User  userPayload `json:"user"`
		Token string      `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, "login", http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return nil, "", err
	}
	user, err := out.User.toDomain()
	if err != nil {
		return nil, "", err
	}

	c.mu.Lock()
	c.token = out.Token
	c.user = user
	c.mu.Unlock()
	return user, out.Token, nil
}

// Logout ends the server session and drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	return c.logout(ctx, "/api/v1/auth/logout")
}

// LogoutAll ends every server session of the user and drops the local token.
func (c *Client) LogoutAll(ctx context.Context) error {
	return c.logout(ctx, "/api/v1/auth/logout?all=true")
}

func (c *Client) logout(ctx context.Context, path string) error {
	if c.Token() == "" {
		return nil
	}
	err := c.call(ctx, "logout", http.MethodPost, path, nil, nil)
	c.SetToken("")
	return err
}

// Me asks the daemon who the token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	if c.Token() == "" {
		return nil, domain.NewAuthError(nil)
	}
	var out struct {
		User userPayload `json:"user"`
	}
	if err := c.call(ctx, "me", http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	user, err := out.User.toDomain()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return user, nil
}

// CurrentUser returns the logged in user, asking the daemon once per token.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	c.mu.RLock()
	user := c.user
	c.mu.RUnlock()
	if user != nil {
		return user, nil
	}
	return c.Me(ctx)
}
