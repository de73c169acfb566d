package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
	"github.com/aykutaslan/event-analytics-pipeline/internal/dto"
	"github.com/aykutaslan/event-analytics-pipeline/internal/ratelimit"
	"github.com/aykutaslan/event-analytics-pipeline/internal/service"
)

type Handler struct {
	eventService service.EventServicer
	limiter      *ratelimit.Limiter
	router       *gin.Engine
	log          *zap.Logger
}

func NewHandler(eventService service.EventServicer, limiter *ratelimit.Limiter, log *zap.Logger) *Handler {
	h := &Handler{
		eventService: eventService,
		limiter:      limiter,
		router:       gin.Default(),
		log:          log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.Use(h.rateLimit())

	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.ingestEvents)
	h.router.GET("/stats/dau", h.getDAU)
	h.router.GET("/stats/top-events", h.getTopEvents)
	h.router.GET("/stats/retention", h.getRetention)
	h.router.GET("/metrics", h.getMetrics)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ingestEvents handles POST /events. The body is a batch of 1-10,000
// events; the whole batch is rejected on any validation failure, and a 202
// acknowledges durable queuing, not persistence.
func (h *Handler) ingestEvents(c *gin.Context) {
	var events []domain.EventInput

	if err := c.ShouldBindJSON(&events); err != nil {
		h.log.Warn("Invalid ingest request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be a JSON array of events",
		})
		return
	}

	count, err := h.eventService.IngestBatch(c.Request.Context(), events)
	if err != nil {
		h.respondIngestError(c, err, len(events))
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestResponse{
		Status: "accepted",
		Count:  count,
	})
}

func (h *Handler) respondIngestError(c *gin.Context, err error, batchSize int) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrBatchTooLarge):
		h.log.Warn("Rejected event batch",
			zap.Int("batch_size", batchSize),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	default:
		h.log.Error("Failed to ingest batch",
			zap.Int("batch_size", batchSize),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}

// getDAU handles GET /stats/dau
func (h *Handler) getDAU(c *gin.Context) {
	response, err := h.eventService.DailyActiveUsers(c.Request.Context(),
		c.Query("from_date"), c.Query("to_date"))
	if err != nil {
		h.respondQueryError(c, "daily active users", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getTopEvents handles GET /stats/top-events
func (h *Handler) getTopEvents(c *gin.Context) {
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "limit must be an integer",
		})
		return
	}

	response, err := h.eventService.TopEvents(c.Request.Context(),
		c.Query("from_date"), c.Query("to_date"), limit)
	if err != nil {
		h.respondQueryError(c, "top events", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getRetention handles GET /stats/retention
func (h *Handler) getRetention(c *gin.Context) {
	windows, err := intQuery(c, "windows", 3)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "windows must be an integer",
		})
		return
	}

	response, err := h.eventService.Retention(c.Request.Context(),
		c.Query("start_date"), windows)
	if err != nil {
		h.respondQueryError(c, "retention", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getMetrics handles GET /metrics
func (h *Handler) getMetrics(c *gin.Context) {
	response, err := h.eventService.Metrics(c.Request.Context())
	if err != nil {
		h.respondQueryError(c, "metrics", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) respondQueryError(c *gin.Context, query string, err error) {
	if errors.Is(err, service.ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Error("Query failed", zap.String("query", query), zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
