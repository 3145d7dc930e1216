// Package api exposes the dashboard over a JSON HTTP API.
package api

import (
	"net/http"

	"agency-dashboard/internal/activity"
	"agency-dashboard/internal/analytics"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/importer"
	"agency-dashboard/internal/notify"
	"agency-dashboard/internal/search"
	"agency-dashboard/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services are the backends the handlers call. Importer, Search and Notifier
// are optional.
type Services struct {
	Store     *store.Store
	Analytics *analytics.Service
	Activity  *activity.Service
	Importer  *importer.Importer
	Search    *search.Index
	Notifier  *notify.Notifier
	Gatherer  prometheus.Gatherer
}

type Handler struct {
	svc    Services
	router *gin.Engine
	log    logger.Logger
}

func NewHandler(svc Services, log logger.Logger) *Handler {
	if svc.Gatherer == nil {
		svc.Gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{
		svc:    svc,
		router: gin.New(),
		log:    log,
	}
	h.router.Use(gin.Recovery(), requestID(log), observe())

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.svc.Gatherer, promhttp.HandlerOpts{})))

	clients := h.router.Group("/clients")
	clients.GET("", h.listClients)
	clients.POST("", h.createClient)
	clients.GET("/:id", h.getClient)
	clients.PATCH("/:id", h.updateClient)
	clients.DELETE("/:id", h.deleteClient)
	clients.GET("/:id/settings", h.getSettings)
	clients.PUT("/:id/settings", h.putSettings)
	clients.POST("/:id/reports", h.sendReport)

	clients.GET("/:id/prospects", h.listProspects)
	clients.POST("/:id/prospects", h.createProspect)
	clients.POST("/:id/prospects/import", h.importProspects)
	clients.POST("/:id/prospects/bulk-delete", h.bulkDeleteProspects)

	clients.GET("/:id/sequences", h.listSequences)
	clients.POST("/:id/sequences", h.createSequence)
	clients.GET("/:id/segments", h.listSegments)
	clients.POST("/:id/segments", h.createSegment)

	clients.GET("/:id/activities", h.recentActivities)
	clients.GET("/:id/analytics", h.overview)
	clients.GET("/:id/dashboard", h.dashboardMetrics)

	h.router.GET("/prospects/:id", h.getProspect)
	h.router.PATCH("/prospects/:id", h.updateProspect)
	h.router.DELETE("/prospects/:id", h.deleteProspect)
	h.router.GET("/prospects/:id/activities", h.prospectActivities)

	h.router.GET("/sequences/:id", h.getSequence)
	h.router.PUT("/sequences/:id", h.updateSequence)
	h.router.DELETE("/sequences/:id", h.deleteSequence)
	h.router.POST("/sequences/:id/toggle", h.toggleSequence)
	h.router.GET("/sequences/:id/performance", h.sequencePerformance)

	h.router.GET("/segments/:id", h.getSegment)
	h.router.PUT("/segments/:id", h.updateSegment)
	h.router.DELETE("/segments/:id", h.deleteSegment)

	h.router.POST("/activities", h.recordActivity)
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
