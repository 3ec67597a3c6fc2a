// Package server exposes the trigger surfaces: HTTP webhooks, an NSQ consumer
// and the gRPC health service.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/async"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

const requestIDHeader = "X-Request-ID"

// WebhookRecord is the row carried by a database webhook.
type WebhookRecord struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at,omitempty"`
}

// WebhookPayload is the body the database sends on insert.
type WebhookPayload struct {
	Type   string        `json:"type"`
	Table  string        `json:"table"`
	Schema string        `json:"schema"`
	Record WebhookRecord `json:"record"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PoolStats is what /healthz reports about a limiter.
type PoolStats interface {
	Capacity() int
	InUse() int
	Waiting() int
	MaxInUse() int
}

type WebhookHandler struct {
	queue  async.Queue
	pools  map[string]PoolStats
	logger *slog.Logger
}

func NewWebhookHandler(queue async.Queue, pools map[string]PoolStats, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{queue: queue, pools: pools, logger: logger}
}

// NewRouter builds the gin engine with request ids, request logging and panic recovery.
func NewRouter(h *WebhookHandler, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(logger))
	h.Register(r)
	return r
}

func (h *WebhookHandler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Health)
	wh := r.Group("/webhooks")
	wh.POST("/resumes", h.handle(constants.JobKindResume))
	wh.POST("/zip-archives", h.handle(constants.JobKindArchive))
	wh.POST("/project-spreadsheets", h.handle(constants.JobKindSpreadsheet))
}

func (h *WebhookHandler) handle(kind constants.JobKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var p WebhookPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			h.logger.WarnContext(ctx, "webhook body rejected", "kind", kind, "error", err)
			c.JSON(http.StatusBadRequest, errorResponse{Error: "INVALID_BODY", Message: err.Error()})
			return
		}
		if err := common.NewValidator().
			Field("record.id", p.Record.ID, common.Required, common.UUID).
			Field("record.filename", p.Record.Filename, common.Required).
			Err(); err != nil {
			h.logger.WarnContext(ctx, "webhook record rejected", "kind", kind, "error", err)
			c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
			return
		}

		job := entity.Job{
			ID:       uuid.MustParse(p.Record.ID),
			Kind:     kind,
			Filename: p.Record.Filename,
		}
		if err := h.queue.Enqueue(ctx, job); err != nil {
			if errors.Is(err, async.ErrShuttingDown) {
				c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "SHUTTING_DOWN", Message: err.Error()})
				return
			}
			c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "processing",
			"message": "We're working on it!",
		})
	}
}

func (h *WebhookHandler) Health(c *gin.Context) {
	pools := gin.H{}
	for name, p := range h.pools {
		pools[name] = gin.H{
			"capacity":   p.Capacity(),
			"in_use":     p.InUse(),
			"waiting":    p.Waiting(),
			"max_in_use": p.MaxInUse(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pools": pools})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds())
	}
}
