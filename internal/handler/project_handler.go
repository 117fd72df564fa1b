package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"buildbid/internal/client"
	"buildbid/internal/metrics"
	"buildbid/internal/model"
	"buildbid/internal/repository"
	"buildbid/internal/workflow"
)

// contractorTargets are the statuses a contractor may set on a project assigned to them.
var contractorTargets = map[workflow.Status]bool{
	workflow.StatusAwaitingTakeoff:   true,
	workflow.StatusTakeoffInProgress: true,
	workflow.StatusTakeoffComplete:   true,
}

type ProjectHandler struct {
	projects *repository.ProjectRepository
	storage  client.FileStorage
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewProjectHandler wires the project endpoints. storage and notifier may be nil.
func NewProjectHandler(
	projects *repository.ProjectRepository,
	storage client.FileStorage,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		storage:  storage,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

type CreateProjectRequest struct {
	Name           string     `json:"name" binding:"required"`
	ContractorName string     `json:"contractor_name"`
	ContractorID   *string    `json:"contractor_id"`
	ClientID       *string    `json:"client_id"`
	ValuationCents int64      `json:"valuation_cents" binding:"min=0"`
	Deadline       *time.Time `json:"deadline"`
	Description    string     `json:"description"`
	HighIntent     bool       `json:"high_intent"`
}

type UpdateProjectRequest struct {
	Name           *string    `json:"name" binding:"omitempty,min=1"`
	ContractorName *string    `json:"contractor_name"`
	ContractorID   *string    `json:"contractor_id"`
	ClientID       *string    `json:"client_id"`
	ValuationCents *int64     `json:"valuation_cents" binding:"omitempty,min=0"`
	Deadline       *time.Time `json:"deadline"`
	Description    *string    `json:"description"`
	HighIntent     *bool      `json:"high_intent"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type HoldRequest struct {
	Hold string `json:"hold"`
}

type ColumnMoveRequest struct {
	Column string `json:"column" binding:"required"`
}

type StatusChangeResponse struct {
	Project *model.Project      `json:"project"`
	Change  *model.StatusChange `json:"change,omitempty"`
}

// scope limits project queries to what the caller may see.
func scope(role model.Role, userID uuid.UUID, filter repository.ProjectFilter) repository.ProjectFilter {
	switch role {
	case model.RoleContractor:
		filter.ContractorID = &userID
		filter.ClientID = nil
	case model.RoleClient:
		filter.ClientID = &userID
		filter.ContractorID = nil
	}
	return filter
}

func canViewProject(p *model.Project, role model.Role, userID uuid.UUID) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleContractor:
		return sameID(p.ContractorID, userID)
	case model.RoleClient:
		return sameID(p.ClientID, userID)
	}
	return false
}

// List returns projects newest first. Contractors and clients only see their own.
// @Summary      List projects
// @Tags         Projects
// @Produce      json
// @Param        q             query string false "Name filter"
// @Param        status        query string false "Status filter"
// @Param        contractor_id query string false "Contractor filter (admin only)"
// @Param        client_id     query string false "Client filter (admin only)"
// @Success      200 {array} model.Project
// @Security     BearerAuth
// @Router       /admin/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := projectFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	projects, err := h.projects.List(c.Request.Context(), scope(role, userID, filter))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func projectFilterFromQuery(c *gin.Context) (repository.ProjectFilter, error) {
	filter := repository.ProjectFilter{Query: c.Query("q")}
	if raw := c.Query("status"); raw != "" {
		status, err := workflow.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	for param, dst := range map[string]**uuid.UUID{"contractor_id": &filter.ContractorID, "client_id": &filter.ClientID} {
		raw := c.Query(param)
		id, err := parseOptionalUUID(&raw)
		if err != nil {
			return filter, fmt.Errorf("%w: %s", errValidation, param)
		}
		*dst = id
	}
	return filter, nil
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canViewProject(project, role, userID) {
		respondError(c, repository.ErrProjectNotFound)
		return
	}
	c.JSON(http.StatusOK, project)
}

// Create adds a project. The status always starts at awaiting_approval.
// @Summary      Create project
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request body CreateProjectRequest true "Project"
// @Success      201 {object} model.Project
// @Security     BearerAuth
// @Router       /admin/projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	contractorID, err := parseOptionalUUID(req.ContractorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contractor ID format"})
		return
	}
	clientID, err := parseOptionalUUID(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
		return
	}

	project := &model.Project{
		Name:           req.Name,
		ContractorName: req.ContractorName,
		ContractorID:   contractorID,
		ClientID:       clientID,
		ValuationCents: req.ValuationCents,
		Deadline:       req.Deadline,
		Description:    req.Description,
		HighIntent:     req.HighIntent,
	}
	if err := h.projects.Create(c.Request.Context(), project, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}
	h.metrics.IncrementProjectCreated()

	notifyParties(c.Request.Context(), h.notifier, h.logger, userID, []*uuid.UUID{project.ContractorID, project.ClientID},
		model.NotificationProjectAssigned, "New project", project.Name+" was assigned to you",
		map[string]string{"project_id": project.ID.String()})

	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	previousContractor := project.ContractorID

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.ContractorName != nil {
		project.ContractorName = *req.ContractorName
	}
	if req.ContractorID != nil {
		if project.ContractorID, err = parseOptionalUUID(req.ContractorID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contractor ID format"})
			return
		}
	}
	if req.ClientID != nil {
		if project.ClientID, err = parseOptionalUUID(req.ClientID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
			return
		}
	}
	if req.ValuationCents != nil {
		project.ValuationCents = *req.ValuationCents
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
		project.DeadlineRemindedAt = nil
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.HighIntent != nil {
		project.HighIntent = *req.HighIntent
	}

	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		respondError(c, err)
		return
	}

	if project.ContractorID != nil && !sameID(previousContractor, *project.ContractorID) {
		notifyParties(c.Request.Context(), h.notifier, h.logger, userID, []*uuid.UUID{project.ContractorID},
			model.NotificationProjectAssigned, "New project", project.Name+" was assigned to you",
			map[string]string{"project_id": project.ID.String()})
	}
	c.JSON(http.StatusOK, project)
}

// Delete is the only way a project is removed.
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatus moves a project through the state machine. Contractors may only set takeoff-phase
// statuses on projects assigned to them.
// @Summary      Change project status
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        id      path string        true "Project ID"
// @Param        request body StatusRequest true "Target status"
// @Success      200 {object} StatusChangeResponse
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Security     BearerAuth
// @Router       /admin/projects/{id}/status [patch]
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	status, err := workflow.ParseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	var guard func(*model.Project) error
	if role != model.RoleAdmin {
		if role != model.RoleContractor || !contractorTargets[status] {
			c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("Role %s cannot set status %s", role, status)})
			return
		}
		guard = func(p *model.Project) error {
			if !sameID(p.ContractorID, userID) {
				return errNotAssigned
			}
			return nil
		}
	}

	h.apply(c, id, repository.StatusUpdate{Status: &status, ChangedBy: userID}, guard)
}

// UpdateHold sets or clears the hold sub-state.
func (h *ProjectHandler) UpdateHold(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	hold, err := workflow.ParseHold(req.Hold)
	if err != nil {
		respondError(c, err)
		return
	}

	h.apply(c, id, repository.StatusUpdate{Hold: &hold, ChangedBy: userID}, nil)
}

// MoveToColumn applies what dropping a project into a pipeline column requests.
func (h *ProjectHandler) MoveToColumn(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req ColumnMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	column, err := workflow.ParseColumn(req.Column)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := column.Target()
	upd := repository.StatusUpdate{Hold: &target.Hold, ChangedBy: userID}
	if target.Status != "" {
		upd.Status = &target.Status
	}
	h.apply(c, id, upd, nil)
}

func (h *ProjectHandler) apply(c *gin.Context, id uuid.UUID, upd repository.StatusUpdate, guard func(*model.Project) error) {
	project, change, err := h.projects.ApplyStatus(c.Request.Context(), id, upd, guard)
	if upd.Status != nil {
		var transition *workflow.TransitionError
		switch {
		case err == nil && change != nil && change.FromStatus != nil:
			h.metrics.RecordStatusTransition(string(*change.FromStatus), string(change.ToStatus), nil)
		case errors.As(err, &transition):
			h.metrics.RecordStatusTransition(string(transition.From), string(transition.To), err)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if change != nil {
		msg := fmt.Sprintf("%s is now %s", project.Name, project.Status)
		if change.ToHold != "" {
			msg += fmt.Sprintf(" (%s)", change.ToHold)
		}
		notifyParties(c.Request.Context(), h.notifier, h.logger, upd.ChangedBy,
			[]*uuid.UUID{project.ContractorID, project.ClientID},
			model.NotificationStatusChanged, "Project status changed", msg,
			map[string]string{"project_id": project.ID.String(), "status": string(project.Status)})
	}
	c.JSON(http.StatusOK, StatusChangeResponse{Project: project, Change: change})
}

// Pipeline groups projects into board columns.
// @Summary      Pipeline board
// @Tags         Projects
// @Produce      json
// @Success      200 {array} model.PipelineLane
// @Security     BearerAuth
// @Router       /admin/pipeline [get]
func (h *ProjectHandler) Pipeline(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	filter, err := projectFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	lanes, err := h.projects.Pipeline(c.Request.Context(), scope(role, userID, filter))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build pipeline"})
		return
	}
	c.JSON(http.StatusOK, lanes)
}

func (h *ProjectHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	if _, err := h.projects.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	changes, err := h.projects.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, changes)
}

// UploadFile stores a blueprint, takeoff or proposal file and records its URL on the project.
// @Summary      Upload project file
// @Tags         Projects
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path     string true "Project ID"
// @Param        kind path     string true "blueprints, takeoff or proposal"
// @Param        file formData file   true "File"
// @Success      200 {object} model.Project
// @Failure      503 {object} map[string]string
// @Security     BearerAuth
// @Router       /admin/projects/{id}/files/{kind} [post]
func (h *ProjectHandler) UploadFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	kind := c.Param("kind")
	if !client.FileKinds[kind] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File kind must be blueprints, takeoff or proposal"})
		return
	}
	if h.storage == nil {
		respondError(c, errStorageOff)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if _, err := h.projects.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer file.Close()

	key, err := h.storage.GenerateFileKey(id, kind, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.storage.UploadFile(c.Request.Context(), key, file, contentType)
	if err != nil {
		h.logger.Error("File upload failed", zap.String("project_id", id.String()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to upload file"})
		return
	}
	if err := h.projects.SetFileURL(c.Request.Context(), id, kind, url); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}
