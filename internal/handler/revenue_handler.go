package handler

import (
	"net/http"

	"buildbid/internal/repository"

	"github.com/gin-gonic/gin"
)

type RevenueHandler struct {
	revenue *repository.RevenueRepository
}

func NewRevenueHandler(revenue *repository.RevenueRepository) *RevenueHandler {
	return &RevenueHandler{revenue: revenue}
}

// Summary reports won revenue, the open pipeline and monthly won totals.
// @Summary      Revenue summary
// @Tags         Revenue
// @Produce      json
// @Success      200 {object} model.RevenueSummary
// @Security     BearerAuth
// @Router       /admin/revenue [get]
func (h *RevenueHandler) Summary(c *gin.Context) {
	summary, err := h.revenue.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute revenue"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
