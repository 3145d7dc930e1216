package api

import (
	"errors"
	"net/http"
	"slices"

	apperrors "agency-dashboard/internal/common/errors"
	"agency-dashboard/internal/common/validation"
	"agency-dashboard/internal/dashboard"
	"agency-dashboard/internal/importer"
	"agency-dashboard/internal/models"
	"agency-dashboard/internal/search"
	"agency-dashboard/internal/store"
	"agency-dashboard/internal/tenant"
	"agency-dashboard/internal/view"

	"github.com/gin-gonic/gin"
)

var prospectFacets = []string{"segment", "status"}

// clientParam resolves the :id of a client-scoped route, answering 404 for
// unknown clients.
func (h *Handler) clientParam(c *gin.Context) (int, bool) {
	id, ok := pathID(c, store.ClientsCollection)
	if !ok {
		return 0, false
	}
	if _, err := h.svc.Store.Clients.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return 0, false
	}
	return id, true
}

// listView answers a list request with the same search, facet and sort rules
// as the dashboard pages.
func listView[T store.Record](c *gin.Context, cfg view.Config[T], clientID int, facets ...string) {
	v := view.New(cfg, tenant.Static(clientID), requestLogger(c))
	if err := v.Reload(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	v.SetSearch(c.Query("search"))
	for _, name := range facets {
		v.ToggleFacet(name, c.Query(name))
	}
	if sort := c.Query("sort"); sort != "" {
		v.SetSort(sort, c.Query("dir") == "desc")
	}

	var values map[string][]string
	if len(facets) > 0 {
		values = make(map[string][]string, len(facets))
		for _, name := range facets {
			values[name] = v.FacetValues(name)
		}
	}

	rows := v.Rows()
	c.JSON(http.StatusOK, ListResponse[T]{Data: rows, Total: len(rows), Facets: values})
}

func (h *Handler) listProspects(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	if h.svc.Search == nil {
		listView(c, dashboard.ProspectConfig(h.svc.Store.Prospects), clientID, prospectFacets...)
		return
	}

	q := search.ProspectQuery{
		ClientID: clientID,
		Term:     c.Query("search"),
		Facets:   map[string]string{},
		SortBy:   "score",
		SortDesc: true,
	}
	for _, name := range prospectFacets {
		if val := c.Query(name); val != "" {
			q.Facets[name] = val
		}
	}
	if sort := c.Query("sort"); sort != "" {
		q.SortBy = sort
		q.SortDesc = c.Query("dir") == "desc"
	}

	res, err := h.svc.Search.SearchProspects(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	out := listOf(res.Prospects)
	out.Total = res.Total
	c.JSON(http.StatusOK, out)
}

func (h *Handler) createProspect(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	var p models.Prospect
	if !bindValidated(c, validation.ProspectCreate, &p) {
		return
	}
	p.ID = 0
	p.ClientID = clientID
	p.Activities = nil

	created, err := h.svc.Store.Prospects.Create(c.Request.Context(), &p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) importProspects(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	if h.svc.Importer == nil {
		respondError(c, apperrors.NewImportFailedError(importer.Source, errors.New("lead import is not configured")))
		return
	}

	ctx := c.Request.Context()
	created, err := h.svc.Importer.Import(ctx, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.svc.Notifier != nil {
		if err := h.svc.Notifier.ProspectsImported(ctx, clientID, created); err != nil {
			requestLogger(c).Warn("Import notification failed", map[string]interface{}{"clientId": clientID, "error": err})
		}
	}
	c.JSON(http.StatusOK, listOf(created))
}

type bulkDeleteRequest struct {
	IDs []int `json:"ids" binding:"required"`
}

// bulkDeleteProspects deletes several of one client's prospects. Ids owned by
// another client reject the whole request.
func (h *Handler) bulkDeleteProspects(c *gin.Context) {
	clientID, ok := h.clientParam(c)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	v := view.New(dashboard.ProspectConfig(h.svc.Store.Prospects), tenant.Static(clientID), requestLogger(c))
	if err := v.Reload(ctx); err != nil {
		respondError(c, err)
		return
	}
	owned := make(map[int]bool, v.Total())
	for _, p := range v.Rows() {
		owned[p.ID] = true
	}
	var fields []apperrors.FieldError
	for _, id := range req.IDs {
		if !owned[id] {
			fields = append(fields, apperrors.FieldError{Field: "ids", Message: "prospect does not belong to this client"})
			break
		}
	}
	if len(fields) > 0 {
		respondError(c, apperrors.NewValidationError(fields...))
		return
	}

	ids := slices.Clone(req.IDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	n, err := v.BulkDelete(ctx, ids, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) getProspect(c *gin.Context) {
	id, ok := pathID(c, store.ProspectsCollection)
	if !ok {
		return
	}
	p, err := h.svc.Store.Prospects.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateProspect(c *gin.Context) {
	id, ok := pathID(c, store.ProspectsCollection)
	if !ok {
		return
	}
	patch, ok := bindPatch(c, validation.ProspectPatch)
	if !ok {
		return
	}

	updated, err := h.svc.Store.Prospects.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteProspect(c *gin.Context) {
	id, ok := pathID(c, store.ProspectsCollection)
	if !ok {
		return
	}
	if _, err := h.svc.Store.Prospects.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
