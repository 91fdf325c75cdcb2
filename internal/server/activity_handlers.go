package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"github.com/feldgrau-labs/chesstrack/backend/internal/export"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type activityListResponse struct {
	Activities []activities.Activity `json:"activities"`
	TotalCount int64                 `json:"total_count"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
}

func (h *httpHandler) handleListActivities(c *gin.Context) {
	pageParams, ok := h.parsePage(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_pagination"})
		return
	}

	filter := activities.ListFilter{
		Category:  c.Query("category"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	result, err := h.activities.List(c.Request.Context(), filter, pageParams.limit, pageParams.offset)
	if err != nil {
		h.requestLogger(c).Error("failed to list activities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	c.JSON(http.StatusOK, activityListResponse{
		Activities: result.Activities,
		TotalCount: result.TotalCount,
		Limit:      pageParams.limit,
		Offset:     pageParams.offset,
	})
}

func (h *httpHandler) handleCreateActivity(c *gin.Context) {
	var request activities.CreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	created, err := h.activities.Create(c.Request.Context(), request)
	if err != nil {
		if activities.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.requestLogger(c).Error("failed to create activity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleDeleteActivity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	if err := h.activities.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, activities.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "activity_not_found"})
			return
		}
		h.requestLogger(c).Error("failed to delete activity", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted"})
}

func (h *httpHandler) handleSummary(c *gin.Context) {
	summary, err := h.activities.Summary(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("failed to compute summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "summary_failed"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *httpHandler) handleExportActivities(c *gin.Context) {
	header, rows, err := h.activities.ExportRows(c.Request.Context())
	if err != nil {
		h.requestLogger(c).Error("failed to export activities", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}

	h.writeCSV(c, fmt.Sprintf("chess_activities_%s.csv", h.clock().Format("20060102")), header, rows)
}

func (h *httpHandler) writeCSV(c *gin.Context, filename string, header []string, rows [][]string) {
	var buffer bytes.Buffer
	if err := export.Write(&buffer, header, rows); err != nil {
		h.requestLogger(c).Error("failed to render csv", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", buffer.Bytes())
}
