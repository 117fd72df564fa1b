package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"buildbid/internal/model"
)

type ProfilePatch struct {
	Name            *string `json:"name,omitempty"`
	Company         *string `json:"company,omitempty"`
	Specialty       *string `json:"specialty,omitempty"`
	YearsExperience *int    `json:"years_experience,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	OfficeAddress   *string `json:"office_address,omitempty"`
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMe(ctx context.Context, patch ProfilePatch) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPut, "/me", patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) listUsers(ctx context.Context, path, query string) ([]model.User, error) {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	var out []model.User
	err := c.do(ctx, http.MethodGet, withQuery(path, v), nil, &out)
	return out, err
}

func (c *Client) ListContractors(ctx context.Context, query string) ([]model.User, error) {
	return c.listUsers(ctx, "/admin/contractors", query)
}

func (c *Client) ListAdmins(ctx context.Context) ([]model.User, error) {
	return c.listUsers(ctx, "/admin/admins", "")
}

func (c *Client) ListClients(ctx context.Context, query string) ([]model.User, error) {
	return c.listUsers(ctx, "/admin/clients", query)
}

func (c *Client) GetContractor(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/admin/contractors/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
