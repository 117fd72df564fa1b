package handler

import (
	"net/http"

	"buildbid/internal/model"
	"buildbid/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ColumnHandler struct {
	columnRepo *repository.ColumnRepository
}

func NewColumnHandler(columnRepo *repository.ColumnRepository) *ColumnHandler {
	return &ColumnHandler{columnRepo: columnRepo}
}

type CreateColumnRequest struct {
	Title    string `json:"title" binding:"required"`
	Position *int   `json:"position" binding:"omitempty,min=0"`
}

type UpdateColumnRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position" binding:"omitempty,min=0"`
}

type ColumnResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type ReorderColumnsRequest struct {
	Columns []struct {
		ID       string `json:"id" binding:"required"`
		Position int    `json:"position" binding:"min=0"`
	} `json:"columns" binding:"required,dive"`
}

func toColumnResponse(column *model.Column) ColumnResponse {
	return ColumnResponse{
		ID:       column.ID.String(),
		Title:    column.Title,
		Position: column.Position,
	}
}

// Create appends a column unless a position is given.
func (h *ColumnHandler) Create(c *gin.Context) {
	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column := &model.Column{Title: req.Title}
	if req.Position != nil {
		column.Position = *req.Position
	} else {
		columns, err := h.columnRepo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to determine position"})
			return
		}
		if len(columns) > 0 {
			maxPosition, err := h.columnRepo.GetMaxPosition(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to determine position"})
				return
			}
			column.Position = maxPosition + 1
		}
	}

	if err := h.columnRepo.Create(c.Request.Context(), column); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create column"})
		return
	}
	c.JSON(http.StatusCreated, toColumnResponse(column))
}

func (h *ColumnHandler) GetAll(c *gin.Context) {
	columns, err := h.columnRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve columns"})
		return
	}

	response := make([]ColumnResponse, 0, len(columns))
	for i := range columns {
		response = append(response, toColumnResponse(&columns[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *ColumnHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "column")
	if !ok {
		return
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toColumnResponse(column))
}

func (h *ColumnHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "column")
	if !ok {
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	column, err := h.columnRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Title != "" {
		column.Title = req.Title
	}
	if req.Position != nil {
		column.Position = *req.Position
	}

	if err := h.columnRepo.Update(c.Request.Context(), column); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toColumnResponse(column))
}

// Delete removes an empty column; 409 while tickets remain in it.
func (h *ColumnHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "column")
	if !ok {
		return
	}

	if err := h.columnRepo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	columns := make([]model.Column, 0, len(req.Columns))
	for _, col := range req.Columns {
		id, err := uuid.Parse(col.ID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
			return
		}
		columns = append(columns, model.Column{ID: id, Position: col.Position})
	}

	if err := h.columnRepo.ReorderColumns(c.Request.Context(), columns); err != nil {
		respondError(c, err)
		return
	}
	h.GetAll(c)
}
