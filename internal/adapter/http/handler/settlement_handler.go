package handler

import (
	"settlement-ledger/internal/adapter/http/dto"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/pkg/apperror"
	"settlement-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles the trip settlement trigger.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Settle handles POST /api/v1/trips/:trip_id/settlement.
// Re-delivered triggers for a settled trip return 200 with already_settled=true.
func (h *SettlementHandler) Settle(c *gin.Context) {
	var uri dto.TripURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Validation("trip_id must be a UUID"))
		return
	}

	result, err := h.settlementSvc.Settle(c.Request.Context(), uuid.MustParse(uri.TripID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
