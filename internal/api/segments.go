package api

import (
	"net/http"

	"agency-dashboard/internal/builder"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/dashboard"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

type segmentRequest struct {
	Name  string        `json:"name"`
	Rules []models.Rule `json:"rules"`
}

func (h *Handler) listSegments(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	listView(c, dashboard.SegmentConfig(h.svc.Store.Segments), clientID)
}

func (h *Handler) createSegment(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	var req segmentRequest
	if !bindValidated(c, validation.SegmentSave, &req) {
		return
	}

	b := builder.NewSegment(h.svc.Store.Segments, h.svc.Store.Prospects, clientID)
	b.Name = req.Name
	b.SetRules(req.Rules)

	seg, err := b.Save(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seg)
}

func (h *Handler) getSegment(c *gin.Context) {
	id, ok := pathID(c, store.SegmentsCollection)
	if !ok {
		return
	}
	seg, err := h.svc.Store.Segments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seg)
}

// updateSegment re-saves the segment and recounts its matching prospects.
func (h *Handler) updateSegment(c *gin.Context) {
	id, ok := pathID(c, store.SegmentsCollection)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	existing, err := h.svc.Store.Segments.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	var req segmentRequest
	if !bindValidated(c, validation.SegmentSave, &req) {
		return
	}

	b := builder.EditSegment(h.svc.Store.Segments, h.svc.Store.Prospects, existing)
	b.Name = req.Name
	b.SetRules(req.Rules)

	seg, err := b.Save(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seg)
}

func (h *Handler) deleteSegment(c *gin.Context) {
	id, ok := pathID(c, store.SegmentsCollection)
	if !ok {
		return
	}
	if _, err := h.svc.Store.Segments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
