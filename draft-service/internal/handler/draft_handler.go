package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	draftcontract "draftmail/contracts/draft"
	"draftmail/draft-service/internal/service/draft"
	"draftmail/pkg/logger"
	"draftmail/pkg/metrics"
)

// Drafter is the service behind POST /generate.
type Drafter interface {
	Draft(ctx context.Context, description string) (string, error)
}

type DraftHandler struct {
	drafter Drafter
	logger  *zap.Logger
}

func NewDraftHandler(drafter Drafter, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		drafter: drafter,
		logger:  logger,
	}
}

// Generate handles POST /generate
func (h *DraftHandler) Generate(c *gin.Context) {
	var req draftcontract.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncrementDraftRequest("invalid")
		c.JSON(http.StatusBadRequest, draftcontract.ErrorResponse{Detail: draftcontract.DetailInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	email, err := h.drafter.Draft(ctx, req.Prompt)
	switch {
	case err == nil:
		metrics.IncrementDraftRequest("success")
		c.JSON(http.StatusOK, draftcontract.Response{Email: email})
	case errors.Is(err, draft.ErrEmptyPrompt):
		metrics.IncrementDraftRequest("invalid")
		c.JSON(http.StatusBadRequest, draftcontract.ErrorResponse{Detail: draftcontract.DetailEmptyPrompt})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.IncrementDraftRequest("cancelled")
		logger.WithTrace(ctx, h.logger).Warn("Draft request abandoned", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, draftcontract.ErrorResponse{Detail: draftcontract.DetailCancelled})
	default:
		metrics.IncrementDraftRequest("failed")
		logger.WithTrace(ctx, h.logger).Error("Draft request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, draftcontract.ErrorResponse{Detail: draftcontract.DetailGeneration})
	}
}
