package api

import (
	"net/http"
	"strconv"

	"agency-dashboard/internal/activity"
	"agency-dashboard/internal/analytics"
	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) recentActivities(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	limit := activity.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, apperrors.NewValidationError(apperrors.FieldError{Field: "limit", Message: "limit must be a positive integer"}))
			return
		}
		limit = n
	}

	list, err := h.svc.Activity.Recent(c.Request.Context(), clientID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listOf(list))
}

func (h *Handler) prospectActivities(c *gin.Context) {
	id, ok := pathID(c, store.ProspectsCollection)
	if !ok {
		return
	}
	list, err := h.svc.Activity.ForProspect(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listOf(list))
}

func (h *Handler) recordActivity(c *gin.Context) {
	var a models.Activity
	if !bindValidated(c, validation.ActivityCreate, &a) {
		return
	}
	a.ID = 0

	created, err := h.svc.Activity.Record(c.Request.Context(), &a)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) overview(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	r := analytics.Range(c.DefaultQuery("range", string(analytics.Range30d)))

	ov, err := h.svc.Analytics.Overview(c.Request.Context(), clientID, r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h *Handler) dashboardMetrics(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	cards, err := h.svc.Analytics.DashboardMetrics(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": cards})
}
