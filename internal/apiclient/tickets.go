package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"buildbid/internal/model"
)

type TicketInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description,omitempty"`
	Type         model.TicketType `json:"type"`
	TaskType     model.TaskType   `json:"task_type,omitempty"`
	ColumnID     *uuid.UUID       `json:"column_id,omitempty"`
	ContractorID *uuid.UUID       `json:"contractor_id,omitempty"`
	ClientID     *uuid.UUID       `json:"client_id,omitempty"`
	ProjectID    *uuid.UUID       `json:"project_id,omitempty"`
}

type TicketPatch struct {
	Title        *string           `json:"title,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Type         *model.TicketType `json:"type,omitempty"`
	TaskType     *model.TaskType   `json:"task_type,omitempty"`
	ContractorID *string           `json:"contractor_id,omitempty"`
	ClientID     *string           `json:"client_id,omitempty"`
	ProjectID    *string           `json:"project_id,omitempty"`
}

func (c *Client) ListColumns(ctx context.Context) ([]model.Column, error) {
	var out []model.Column
	err := c.do(ctx, http.MethodGet, "/admin/columns", nil, &out)
	return out, err
}

func (c *Client) CreateColumn(ctx context.Context, title string) (*model.Column, error) {
	var out model.Column
	if err := c.do(ctx, http.MethodPost, "/admin/columns", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteColumn fails with a 409 *APIError while the column still holds tickets.
func (c *Client) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/admin/columns/"+id.String(), nil, nil)
}

// ListTickets lists tickets visible to the session's role, optionally within one column.
func (c *Client) ListTickets(ctx context.Context, columnID *uuid.UUID) ([]model.Ticket, error) {
	path, err := c.rolePath("/tickets")
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	if columnID != nil {
		v.Set("column_id", columnID.String())
	}
	var out []model.Ticket
	err = c.do(ctx, http.MethodGet, withQuery(path, v), nil, &out)
	return out, err
}

func (c *Client) CreateTicket(ctx context.Context, in TicketInput) (*model.Ticket, error) {
	var out model.Ticket
	if err := c.do(ctx, http.MethodPost, "/admin/tickets", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id uuid.UUID, patch TicketPatch) (*model.Ticket, error) {
	var out model.Ticket
	if err := c.do(ctx, http.MethodPut, "/admin/tickets/"+id.String(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTicket(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/admin/tickets/"+id.String(), nil, nil)
}

func (c *Client) MoveTicket(ctx context.Context, id, columnID uuid.UUID) (*model.Ticket, error) {
	var out model.Ticket
	if err := c.do(ctx, http.MethodPost, "/admin/tickets/"+id.String()+"/move", map[string]string{"column_id": columnID.String()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StartTimer(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	return c.timer(ctx, id, "start")
}

func (c *Client) StopTimer(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	return c.timer(ctx, id, "stop")
}

func (c *Client) timer(ctx context.Context, id uuid.UUID, action string) (*model.Ticket, error) {
	path, err := c.rolePath("/tickets/" + id.String() + "/timer/" + action)
	if err != nil {
		return nil, err
	}
	var out model.Ticket
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TicketComments(ctx context.Context, id uuid.UUID) ([]model.Comment, error) {
	var out []model.Comment
	err := c.do(ctx, http.MethodGet, "/tickets/"+id.String()+"/comments", nil, &out)
	return out, err
}

func (c *Client) AddTicketComment(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error) {
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/tickets/"+id.String()+"/comments", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
