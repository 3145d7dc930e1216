package api

import (
	"context"
	"fmt"
	"net/http"

	"agency-dashboard/internal/builder"
	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/dashboard"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

type sequenceRequest struct {
	Name     string                `json:"name"`
	Steps    []models.Step         `json:"steps"`
	Triggers models.Triggers       `json:"triggers"`
	Status   models.SequenceStatus `json:"status,omitempty"`
}

func (h *Handler) listSequences(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	listView(c, dashboard.SequenceConfig(h.svc.Store.Sequences), clientID, "status")
}

func (h *Handler) createSequence(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	var req sequenceRequest
	if !bindValidated(c, validation.SequenceSave, &req) {
		return
	}

	b := builder.NewSequence(h.svc.Store.Sequences, clientID)
	b.Name = req.Name
	b.Triggers = req.Triggers
	b.SetSteps(req.Steps)

	seq, err := b.Save(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	requestLogger(c).Info("Sequence created", map[string]interface{}{"clientId": clientID, "sequenceId": seq.ID})
	c.JSON(http.StatusCreated, seq)
}

func (h *Handler) getSequence(c *gin.Context) {
	id, ok := pathID(c, store.SequencesCollection)
	if !ok {
		return
	}
	seq, err := h.svc.Store.Sequences.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seq)
}

// updateSequence saves the builder fields and, when a status is given,
// moves the sequence to it.
func (h *Handler) updateSequence(c *gin.Context) {
	id, ok := pathID(c, store.SequencesCollection)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	existing, err := h.svc.Store.Sequences.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	var req sequenceRequest
	if !bindValidated(c, validation.SequenceSave, &req) {
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		respondError(c, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "status",
			Message: fmt.Sprintf("unknown sequence status %q", req.Status),
		}))
		return
	}

	b := builder.EditSequence(h.svc.Store.Sequences, existing)
	b.Name = req.Name
	b.Triggers = req.Triggers
	b.SetSteps(req.Steps)

	seq, err := b.Save(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Status != "" && req.Status != seq.Status {
		before := seq
		seq, err = h.svc.Store.Sequences.Update(ctx, id, store.Patch{"status": req.Status})
		if err != nil {
			respondError(c, err)
			return
		}
		h.statusChanged(ctx, c, before, seq)
	}
	c.JSON(http.StatusOK, seq)
}

func (h *Handler) deleteSequence(c *gin.Context) {
	id, ok := pathID(c, store.SequencesCollection)
	if !ok {
		return
	}
	if _, err := h.svc.Store.DeleteSequence(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// toggleSequence flips active and paused; any other status becomes active.
func (h *Handler) toggleSequence(c *gin.Context) {
	id, ok := pathID(c, store.SequencesCollection)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	before, after, err := dashboard.ToggleSequence(ctx, h.svc.Store.Sequences, id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.statusChanged(ctx, c, before, after)
	c.JSON(http.StatusOK, after)
}

func (h *Handler) sequencePerformance(c *gin.Context) {
	id, ok := pathID(c, store.SequencesCollection)
	if !ok {
		return
	}
	perf, err := h.svc.Analytics.SequencePerformance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

func (h *Handler) statusChanged(ctx context.Context, c *gin.Context, before, after *models.Sequence) {
	if h.svc.Notifier == nil {
		return
	}
	if err := h.svc.Notifier.SequenceStatusChanged(ctx, before, after); err != nil {
		requestLogger(c).Warn("Sequence notification failed", map[string]interface{}{"sequenceId": after.ID, "error": err})
	}
}
