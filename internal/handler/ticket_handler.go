package handler

import (
	"net/http"
	"time"

	"buildbid/internal/model"
	"buildbid/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketHandler struct {
	ticketRepo *repository.TicketRepository
	columnRepo *repository.ColumnRepository
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewTicketHandler(
	ticketRepo *repository.TicketRepository,
	columnRepo *repository.ColumnRepository,
	notifier Notifier,
	logger *zap.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketRepo: ticketRepo,
		columnRepo: columnRepo,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
	}
}

// TicketRequest creates a ticket. Without column_id the ticket goes to the first column.
type TicketRequest struct {
	Title        string           `json:"title" binding:"required"`
	Description  string           `json:"description"`
	Type         model.TicketType `json:"type" binding:"required"`
	TaskType     model.TaskType   `json:"task_type"`
	ColumnID     *string          `json:"column_id"`
	ContractorID *string          `json:"contractor_id"`
	ClientID     *string          `json:"client_id"`
	ProjectID    *string          `json:"project_id"`
}

type TicketUpdateRequest struct {
	Title        *string           `json:"title" binding:"omitempty,min=1"`
	Description  *string           `json:"description"`
	Type         *model.TicketType `json:"type"`
	TaskType     *model.TaskType   `json:"task_type"`
	ContractorID *string           `json:"contractor_id"`
	ClientID     *string           `json:"client_id"`
	ProjectID    *string           `json:"project_id"`
}

type TicketMoveRequest struct {
	ColumnID string `json:"column_id" binding:"required,uuid"`
}

type TicketResponse struct {
	ID             string           `json:"id"`
	ColumnID       string           `json:"column_id"`
	Title          string           `json:"title"`
	Description    string           `json:"description,omitempty"`
	Type           model.TicketType `json:"type"`
	TaskType       model.TaskType   `json:"task_type,omitempty"`
	ContractorID   *string          `json:"contractor_id,omitempty"`
	ClientID       *string          `json:"client_id,omitempty"`
	ProjectID      *string          `json:"project_id,omitempty"`
	CreatedBy      string           `json:"created_by"`
	Position       int              `json:"position"`
	TrackedSeconds int64            `json:"tracked_seconds"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
	TimerStartedAt *time.Time       `json:"timer_started_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func optionalString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toTicketResponse(t *model.Ticket, now time.Time) TicketResponse {
	return TicketResponse{
		ID:             t.ID.String(),
		ColumnID:       t.ColumnID.String(),
		Title:          t.Title,
		Description:    t.Description,
		Type:           t.Type,
		TaskType:       t.TaskType,
		ContractorID:   optionalString(t.ContractorID),
		ClientID:       optionalString(t.ClientID),
		ProjectID:      optionalString(t.ProjectID),
		CreatedBy:      t.CreatedBy.String(),
		Position:       t.Position,
		TrackedSeconds: t.TrackedSeconds,
		ElapsedSeconds: int64(t.Elapsed(now) / time.Second),
		TimerStartedAt: t.TimerStartedAt,
		CreatedAt:      t.CreatedAt,
	}
}

func canViewTicket(t *model.Ticket, role model.Role, userID uuid.UUID) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleContractor:
		return sameID(t.ContractorID, userID)
	case model.RoleClient:
		return sameID(t.ClientID, userID)
	}
	return false
}

// loadVisible fetches a ticket and hides it from callers who may not see it.
func (h *TicketHandler) loadVisible(c *gin.Context) (*model.Ticket, uuid.UUID, bool) {
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, ok := parseIDParam(c, "id", "ticket")
	if !ok {
		return nil, uuid.Nil, false
	}

	ticket, err := h.ticketRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, uuid.Nil, false
	}
	if !canViewTicket(ticket, role, userID) {
		respondError(c, repository.ErrTicketNotFound)
		return nil, uuid.Nil, false
	}
	return ticket, userID, true
}

// List returns tickets ordered by column and position. Contractors and clients only see their own.
func (h *TicketHandler) List(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var filter repository.TicketFilter
	for param, dst := range map[string]**uuid.UUID{
		"column_id":     &filter.ColumnID,
		"project_id":    &filter.ProjectID,
		"contractor_id": &filter.ContractorID,
		"client_id":     &filter.ClientID,
	} {
		raw := c.Query(param)
		id, err := parseOptionalUUID(&raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
			return
		}
		*dst = id
	}
	switch role {
	case model.RoleContractor:
		filter.ContractorID, filter.ClientID = &userID, nil
	case model.RoleClient:
		filter.ClientID, filter.ContractorID = &userID, nil
	}

	tickets, err := h.ticketRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tickets"})
		return
	}

	now := h.now()
	response := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		response = append(response, toTicketResponse(&tickets[i], now))
	}
	c.JSON(http.StatusOK, response)
}

func (h *TicketHandler) GetByID(c *gin.Context) {
	ticket, _, ok := h.loadVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket, h.now()))
}

func (h *TicketHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ticket := &model.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		TaskType:    req.TaskType,
		CreatedBy:   userID,
	}
	var err error
	if ticket.ContractorID, err = parseOptionalUUID(req.ContractorID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contractor ID format"})
		return
	}
	if ticket.ClientID, err = parseOptionalUUID(req.ClientID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
		return
	}
	if ticket.ProjectID, err = parseOptionalUUID(req.ProjectID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}
	if err := ticket.Validate(); err != nil {
		respondError(c, err)
		return
	}

	columnID, err := parseOptionalUUID(req.ColumnID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}
	var column *model.Column
	if columnID != nil {
		column, err = h.columnRepo.GetByID(c.Request.Context(), *columnID)
	} else {
		column, err = h.columnRepo.First(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ticket.ColumnID = column.ID

	if err := h.ticketRepo.Create(c.Request.Context(), ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	notifyParties(c.Request.Context(), h.notifier, h.logger, userID, []*uuid.UUID{ticket.ContractorID, ticket.ClientID},
		model.NotificationTicketAssigned, "New ticket", ticket.Title,
		map[string]string{"ticket_id": ticket.ID.String()})

	c.JSON(http.StatusCreated, toTicketResponse(ticket, h.now()))
}

func (h *TicketHandler) Update(c *gin.Context) {
	ticket, _, ok := h.loadVisible(c)
	if !ok {
		return
	}

	var req TicketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Title != nil {
		ticket.Title = *req.Title
	}
	if req.Description != nil {
		ticket.Description = *req.Description
	}
	if req.Type != nil {
		ticket.Type = *req.Type
	}
	if req.TaskType != nil {
		ticket.TaskType = *req.TaskType
	}
	var err error
	if req.ContractorID != nil {
		if ticket.ContractorID, err = parseOptionalUUID(req.ContractorID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contractor ID format"})
			return
		}
	}
	if req.ClientID != nil {
		if ticket.ClientID, err = parseOptionalUUID(req.ClientID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID format"})
			return
		}
	}
	if req.ProjectID != nil {
		if ticket.ProjectID, err = parseOptionalUUID(req.ProjectID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
			return
		}
	}
	if err := ticket.Validate(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.ticketRepo.Update(c.Request.Context(), ticket); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket, h.now()))
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ticket")
	if !ok {
		return
	}
	if err := h.ticketRepo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveTicket puts the ticket at the end of another column.
func (h *TicketHandler) MoveTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "ticket")
	if !ok {
		return
	}

	var req TicketMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	columnID, _ := uuid.Parse(req.ColumnID)

	ticket, err := h.ticketRepo.MoveTicket(c.Request.Context(), id, columnID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(ticket, h.now()))
}

func (h *TicketHandler) StartTimer(c *gin.Context) {
	ticket, _, ok := h.loadVisible(c)
	if !ok {
		return
	}

	updated, err := h.ticketRepo.StartTimer(c.Request.Context(), ticket.ID, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(updated, h.now()))
}

func (h *TicketHandler) StopTimer(c *gin.Context) {
	ticket, _, ok := h.loadVisible(c)
	if !ok {
		return
	}

	updated, err := h.ticketRepo.StopTimer(c.Request.Context(), ticket.ID, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(updated, h.now()))
}
