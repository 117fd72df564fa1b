package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"buildbid/internal/model"
)

type RegisterInput struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	Role            model.Role `json:"role,omitempty"`
	Company         string     `json:"company,omitempty"`
	Specialty       string     `json:"specialty,omitempty"`
	YearsExperience int        `json:"years_experience,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	OfficeAddress   string     `json:"office_address,omitempty"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/login", credentials{Email: email, Password: password})
}

// LoginAdmin fails with a 403 *APIError for non-admin accounts.
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/login/admin", credentials{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	return c.authenticate(ctx, "/register", in)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User.ID == uuid.Nil {
		return nil, fmt.Errorf("%s: response carried no session", path)
	}

	s := &Session{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Email:  resp.User.Email,
		Role:   resp.User.Role,
	}
	c.setSession(s)
	return c.Session(), nil
}
