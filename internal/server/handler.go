// Package server exposes the interactive surface: paste a blob of text,
// get back the three outcome buckets.
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
	"github.com/kehilathaz/receipts-automation/internal/pipeline"
)

// ReceiptRunner runs the processing pipeline
type ReceiptRunner interface {
	RunFromText(ctx context.Context, text, trigger string) (*models.RunResult, error)
	RunFromMailbox(ctx context.Context, trigger string) (*models.RunResult, error)
}

// RunHistory lists recent run summaries
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// Handler handles the receipts HTTP API
type Handler struct {
	runner  ReceiptRunner
	history RunHistory
	logger  *zap.Logger
}

// NewHandler creates a new API handler. history may be nil.
func NewHandler(runner ReceiptRunner, history RunHistory, logger *zap.Logger) *Handler {
	return &Handler{
		runner:  runner,
		history: history,
		logger:  logger,
	}
}

// processRequest is the interactive surface's input: free text that may
// contain receipt links among arbitrary tokens
type processRequest struct {
	Text string `json:"text" binding:"required"`
}

// Process runs the pipeline over pasted text
func (h *Handler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	result, err := h.runner.RunFromText(c.Request.Context(), req.Text, pipeline.TriggerAPI)
	if err != nil {
		h.logger.Error("Run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunMailbox triggers a mailbox-driven run
func (h *Handler) RunMailbox(c *gin.Context) {
	result, err := h.runner.RunFromMailbox(c.Request.Context(), pipeline.TriggerAPI)
	if err != nil {
		h.logger.Error("Mailbox run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Runs lists recent run summaries
func (h *Handler) Runs(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history disabled"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": records})
}
