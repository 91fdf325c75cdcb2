package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/feldgrau-labs/chesstrack/backend/internal/mistakes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type mistakeListResponse struct {
	Mistakes   []mistakes.Mistake `json:"mistakes"`
	TotalCount int64              `json:"total_count"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

func (h *httpHandler) handleListMistakes(c *gin.Context) {
	pageParams, ok := h.parsePage(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_pagination"})
		return
	}

	result, err := h.mistakes.List(c.Request.Context(), pageParams.limit, pageParams.offset)
	if err != nil {
		h.requestLogger(c).Error("failed to list mistakes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	c.JSON(http.StatusOK, mistakeListResponse{
		Mistakes:   result.Mistakes,
		TotalCount: result.TotalCount,
		Limit:      pageParams.limit,
		Offset:     pageParams.offset,
	})
}

func (h *httpHandler) handleCreateMistake(c *gin.Context) {
	var request mistakes.CreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.mistakes.Create(c.Request.Context(), request)
	if err != nil {
		if mistakes.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.requestLogger(c).Error("failed to create mistake", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleDeleteMistake(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	if err := h.mistakes.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, mistakes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "mistake_not_found"})
			return
		}
		h.requestLogger(c).Error("failed to delete mistake", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mistake deleted"})
}

func (h *httpHandler) handleMistakeStats(c *gin.Context) {
	stats, err := h.mistakes.Stats(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("failed to compute mistake stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *httpHandler) handleExportMistakes(c *gin.Context) {
	header, rows, err := h.mistakes.ExportRows(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("failed to export mistakes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}

	h.writeCSV(c, fmt.Sprintf("chess_mistakes_%s.csv", h.clock().Format("20060102")), header, rows)
}
