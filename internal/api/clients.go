package api

import (
	"net/http"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listClients(c *gin.Context) {
	list, err := h.svc.Store.Clients.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewLoadFailureError(store.ClientsCollection, err))
		return
	}
	c.JSON(http.StatusOK, listOf(list))
}

func (h *Handler) createClient(c *gin.Context) {
	var client models.Client
	if !bindValidated(c, validation.ClientCreate, &client) {
		return
	}
	client.ID = 0

	created, err := h.svc.Store.Clients.Create(c.Request.Context(), &client)
	if err != nil {
		respondError(c, err)
		return
	}
	requestLogger(c).Info("Client created", map[string]interface{}{"clientId": created.ID})
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getClient(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	client, err := h.svc.Store.Clients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *Handler) updateClient(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	patch, ok := bindPatch(c, validation.ClientPatch)
	if !ok {
		return
	}
	updated, err := h.svc.Store.Clients.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// deleteClient removes the client together with everything it owns.
func (h *Handler) deleteClient(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	if _, err := h.svc.Store.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	requestLogger(c).Info("Client deleted", map[string]interface{}{"clientId": id})
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSettings(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	client, err := h.svc.Store.Clients.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client.Settings)
}

func (h *Handler) putSettings(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	var settings models.Settings
	if !bindJSON(c, &settings) {
		return
	}

	var fields []apperrors.FieldError
	for _, f := range []struct{ name, addr string }{
		{"emailSettings.fromEmail", settings.EmailSettings.FromEmail},
		{"emailSettings.replyTo", settings.EmailSettings.ReplyTo},
	} {
		if f.addr != "" && !validation.ValidateEmail(f.addr) {
			fields = append(fields, apperrors.FieldError{Field: f.name, Message: "invalid email address"})
		}
	}
	if len(fields) > 0 {
		respondError(c, apperrors.NewValidationError(fields...))
		return
	}

	updated, err := h.svc.Store.Clients.Update(c.Request.Context(), id, store.Patch{"settings": settings})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.Settings)
}

// sendReport mails the client's analytics report when reports are enabled.
func (h *Handler) sendReport(c *gin.Context) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return
	}
	if h.svc.Notifier == nil {
		c.JSON(http.StatusOK, gin.H{"sent": false})
		return
	}
	sent, err := h.svc.Notifier.SendReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
