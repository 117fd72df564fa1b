package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

type ProjectFilter struct {
	Query        string
	Status       workflow.Status
	ContractorID *uuid.UUID
	ClientID     *uuid.UUID
}

func (f ProjectFilter) values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if f.ContractorID != nil {
		v.Set("contractor_id", f.ContractorID.String())
	}
	if f.ClientID != nil {
		v.Set("client_id", f.ClientID.String())
	}
	return v
}

type ProjectInput struct {
	Name           string     `json:"name"`
	ContractorName string     `json:"contractor_name,omitempty"`
	ContractorID   *uuid.UUID `json:"contractor_id,omitempty"`
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	ValuationCents int64      `json:"valuation_cents"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Description    string     `json:"description,omitempty"`
	HighIntent     bool       `json:"high_intent"`
}

// ProjectPatch updates only the non-nil fields.
type ProjectPatch struct {
	Name           *string    `json:"name,omitempty"`
	ContractorName *string    `json:"contractor_name,omitempty"`
	ContractorID   *string    `json:"contractor_id,omitempty"`
	ClientID       *string    `json:"client_id,omitempty"`
	ValuationCents *int64     `json:"valuation_cents,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Description    *string    `json:"description,omitempty"`
	HighIntent     *bool      `json:"high_intent,omitempty"`
}

type StatusChange struct {
	Project *model.Project      `json:"project"`
	Change  *model.StatusChange `json:"change,omitempty"`
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// ListProjects lists the projects visible to the session's role.
func (c *Client) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	path, err := c.rolePath("/projects")
	if err != nil {
		return nil, err
	}
	var out []model.Project
	err = c.do(ctx, http.MethodGet, withQuery(path, filter.values()), nil, &out)
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	path, err := c.rolePath("/projects/" + id.String())
	if err != nil {
		return nil, err
	}
	var out model.Project
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPost, "/admin/projects", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*model.Project, error) {
	var out model.Project
	if err := c.do(ctx, http.MethodPut, "/admin/projects/"+id.String(), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/admin/projects/"+id.String(), nil, nil)
}

// SetStatus asks the server to move the project. Illegal transitions come back as a 409 *APIError.
func (c *Client) SetStatus(ctx context.Context, id uuid.UUID, status workflow.Status) (*StatusChange, error) {
	path, err := c.rolePath("/projects/" + id.String() + "/status")
	if err != nil {
		return nil, err
	}
	var out StatusChange
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetHold(ctx context.Context, id uuid.UUID, hold workflow.Hold) (*StatusChange, error) {
	var out StatusChange
	if err := c.do(ctx, http.MethodPatch, "/admin/projects/"+id.String()+"/hold", map[string]string{"hold": string(hold)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveToColumn applies what dropping the project into a pipeline column means.
func (c *Client) MoveToColumn(ctx context.Context, id uuid.UUID, column workflow.Column) (*StatusChange, error) {
	var out StatusChange
	if err := c.do(ctx, http.MethodPatch, "/admin/projects/"+id.String()+"/column", map[string]string{"column": string(column)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Pipeline(ctx context.Context, filter ProjectFilter) ([]model.PipelineLane, error) {
	path, err := c.rolePath("/pipeline")
	if err != nil {
		return nil, err
	}
	var out []model.PipelineLane
	err = c.do(ctx, http.MethodGet, withQuery(path, filter.values()), nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	var out []model.StatusChange
	err := c.do(ctx, http.MethodGet, "/admin/projects/"+id.String()+"/history", nil, &out)
	return out, err
}

// UploadFile sends one attachment as multipart field "file". kind is blueprints, takeoff or proposal.
func (c *Client) UploadFile(ctx context.Context, id uuid.UUID, kind, fileName string, content io.Reader) (*model.Project, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var out model.Project
	path := fmt.Sprintf("/admin/projects/%s/files/%s", id, url.PathEscape(kind))
	if err := c.send(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProjectComments(ctx context.Context, id uuid.UUID) ([]model.Comment, error) {
	var out []model.Comment
	err := c.do(ctx, http.MethodGet, "/projects/"+id.String()+"/comments", nil, &out)
	return out, err
}

func (c *Client) AddProjectComment(ctx context.Context, id uuid.UUID, content string) (*model.Comment, error) {
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/projects/"+id.String()+"/comments", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Revenue(ctx context.Context) (*model.RevenueSummary, error) {
	var out model.RevenueSummary
	if err := c.do(ctx, http.MethodGet, "/admin/revenue", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
