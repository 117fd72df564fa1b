package handler

import (
	"net/http"
	"strings"

	"buildbid/internal/model"
	"buildbid/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentHandler struct {
	comments *repository.CommentRepository
	tickets  *repository.TicketRepository
	projects *repository.ProjectRepository
	users    UserStore
	notifier Notifier
	logger   *zap.Logger
}

func NewCommentHandler(
	comments *repository.CommentRepository,
	tickets *repository.TicketRepository,
	projects *repository.ProjectRepository,
	users UserStore,
	notifier Notifier,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		tickets:  tickets,
		projects: projects,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// commentTarget is the ticket or project a comment thread hangs off.
type commentTarget struct {
	entity     model.EntityType
	id         uuid.UUID
	title      string
	recipients []*uuid.UUID
}

// resolve loads the parent entity and checks the caller may see it.
func (h *CommentHandler) resolve(c *gin.Context, entity model.EntityType) (*commentTarget, uuid.UUID, bool) {
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, uuid.Nil, false
	}
	id, ok := parseIDParam(c, "id", string(entity))
	if !ok {
		return nil, uuid.Nil, false
	}

	ctx := c.Request.Context()
	switch entity {
	case model.EntityTicket:
		ticket, err := h.tickets.GetByID(ctx, id)
		if err == nil && !canViewTicket(ticket, role, userID) {
			err = repository.ErrTicketNotFound
		}
		if err != nil {
			respondError(c, err)
			return nil, uuid.Nil, false
		}
		return &commentTarget{
			entity:     entity,
			id:         id,
			title:      ticket.Title,
			recipients: []*uuid.UUID{&ticket.CreatedBy, ticket.ContractorID, ticket.ClientID},
		}, userID, true
	default:
		project, err := h.projects.GetByID(ctx, id)
		if err == nil && !canViewProject(project, role, userID) {
			err = repository.ErrProjectNotFound
		}
		if err != nil {
			respondError(c, err)
			return nil, uuid.Nil, false
		}
		return &commentTarget{
			entity:     entity,
			id:         id,
			title:      project.Name,
			recipients: []*uuid.UUID{project.ContractorID, project.ClientID},
		}, userID, true
	}
}

func (h *CommentHandler) list(c *gin.Context, entity model.EntityType) {
	target, _, ok := h.resolve(c, entity)
	if !ok {
		return
	}

	comments, err := h.comments.List(c.Request.Context(), target.entity, target.id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) add(c *gin.Context, entity model.EntityType) {
	target, userID, ok := h.resolve(c, entity)
	if !ok {
		return
	}

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment content is required"})
		return
	}

	author, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load author"})
		return
	}
	if author == nil {
		respondError(c, repository.ErrUserNotFound)
		return
	}

	comment := &model.Comment{
		EntityType: target.entity,
		EntityID:   target.id,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    strings.TrimSpace(req.Content),
	}
	if err := h.comments.Add(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	notifyParties(c.Request.Context(), h.notifier, h.logger, userID, target.recipients,
		model.NotificationCommentAdded, "New comment on "+target.title,
		author.Name+": "+comment.Content,
		map[string]string{string(target.entity) + "_id": target.id.String(), "comment_id": comment.ID.String()})

	c.JSON(http.StatusCreated, comment)
}

// @Summary      List ticket comments
// @Tags         Comments
// @Produce      json
// @Param        id path string true "Ticket ID"
// @Success      200 {array} model.Comment
// @Security     BearerAuth
// @Router       /tickets/{id}/comments [get]
func (h *CommentHandler) ListTicketComments(c *gin.Context) { h.list(c, model.EntityTicket) }

// @Summary      Add ticket comment
// @Tags         Comments
// @Accept       json
// @Produce      json
// @Param        id      path string         true "Ticket ID"
// @Param        request body CommentRequest true "Comment"
// @Success      201 {object} model.Comment
// @Security     BearerAuth
// @Router       /tickets/{id}/comments [post]
func (h *CommentHandler) AddTicketComment(c *gin.Context) { h.add(c, model.EntityTicket) }

func (h *CommentHandler) ListProjectComments(c *gin.Context) { h.list(c, model.EntityProject) }

func (h *CommentHandler) AddProjectComment(c *gin.Context) { h.add(c, model.EntityProject) }
