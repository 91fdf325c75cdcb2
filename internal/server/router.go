package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"github.com/feldgrau-labs/chesstrack/backend/internal/mistakes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDContextKey = "chesstrack_request_id"

var (
	errMissingActivityService = errors.New("activity service dependency required")
	errMissingMistakeService  = errors.New("mistake service dependency required")
)

// PageDefaults configures pagination clamping at the API boundary. Limits
// at or below zero fall back to Limit; limits above Max are cut to Max.
type PageDefaults struct {
	Limit int
	Max   int
}

// Dependencies wires the HTTP handler to the service layer.
type Dependencies struct {
	Activities *activities.Service
	Mistakes   *mistakes.Service
	Clock      func() time.Time
	Pages      PageDefaults
	Logger     *zap.Logger
}

// NewHTTPHandler assembles the gin router. CORS is wide open: the API backs
// a local single-user frontend.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Activities == nil {
		return nil, errMissingActivityService
	}
	if deps.Mistakes == nil {
		return nil, errMissingMistakeService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	pages := deps.Pages
	if pages.Limit <= 0 {
		pages.Limit = 20
	}
	if pages.Max < pages.Limit {
		pages.Max = pages.Limit
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		activities: deps.Activities,
		mistakes:   deps.Mistakes,
		clock:      clock,
		pages:      pages,
		logger:     logger,
	}

	router.GET("/healthz", handler.handleHealth)

	router.GET("/activities", handler.handleListActivities)
	router.POST("/activities", handler.handleCreateActivity)
	router.DELETE("/activities/:id", handler.handleDeleteActivity)
	router.GET("/export", handler.handleExportActivities)
	router.GET("/stats/summary", handler.handleSummary)

	router.GET("/mistakes", handler.handleListMistakes)
	router.POST("/mistakes", handler.handleCreateMistake)
	router.DELETE("/mistakes/:id", handler.handleDeleteMistake)
	router.GET("/mistakes/stats", handler.handleMistakeStats)
	router.GET("/export/mistakes", handler.handleExportMistakes)

	return router, nil
}

type httpHandler struct {
	activities *activities.Service
	mistakes   *mistakes.Service
	clock      func() time.Time
	pages      PageDefaults
	logger     *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestIDMiddleware tags every request with a UUIDv7 correlation id,
// honoring one supplied by the caller.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			if value, err := uuid.NewV7(); err == nil {
				requestID = value.String()
			}
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

func (h *httpHandler) requestLogger(c *gin.Context) *zap.Logger {
	return h.logger.With(zap.String("request_id", c.GetString(requestIDContextKey)))
}
