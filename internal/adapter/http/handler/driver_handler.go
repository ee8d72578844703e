package handler

import (
	"math"

	"settlement-ledger/internal/adapter/http/dto"
	"settlement-ledger/internal/adapter/http/middleware"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/pkg/apperror"
	"settlement-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultLedgerPageSize = 20

// DriverHandler handles wallet, ledger, deposit and online endpoints of a driver.
type DriverHandler struct {
	driverSvc  ports.DriverService
	depositSvc ports.DepositService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverSvc ports.DriverService, depositSvc ports.DepositService) *DriverHandler {
	return &DriverHandler{driverSvc: driverSvc, depositSvc: depositSvc}
}

// driverID binds :driver_id and enforces that a driver token only reaches its own wallet.
func driverID(c *gin.Context) (uuid.UUID, bool) {
	var uri dto.DriverURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, apperror.Validation("driver_id must be a UUID"))
		return uuid.Nil, false
	}
	id := uuid.MustParse(uri.DriverID)

	if role, _ := middleware.RoleFrom(c); role == ports.RoleDriver && middleware.SubjectFrom(c) != id.String() {
		response.Error(c, apperror.ErrForbidden())
		return uuid.Nil, false
	}
	return id, true
}

// GetWallet handles GET /api/v1/drivers/:driver_id/wallet.
func (h *DriverHandler) GetWallet(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	view, err := h.driverSvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// VerifyWallet handles GET /api/v1/drivers/:driver_id/wallet/verify.
func (h *DriverHandler) VerifyWallet(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	v, err := h.driverSvc.VerifyWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// ListLedger handles GET /api/v1/drivers/:driver_id/ledger.
func (h *DriverHandler) ListLedger(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultLedgerPageSize
	}

	entries, total, err := h.driverSvc.ListLedger(c.Request.Context(), id, q.Page, q.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.ToLedgerEntryResponse(e))
	}

	response.OK(c, dto.LedgerListResponse{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(q.PageSize))),
	})
}

// GoOnline handles POST /api/v1/drivers/:driver_id/online.
// A locked wallet is refused with LEDGER_006 carrying the lock reason.
func (h *DriverHandler) GoOnline(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	view, err := h.driverSvc.GoOnline(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// RecordDeposit handles POST /api/v1/drivers/:driver_id/deposits.
func (h *DriverHandler) RecordDeposit(c *gin.Context) {
	id, ok := driverID(c)
	if !ok {
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, middleware.BindError(err))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.depositSvc.RecordDeposit(c.Request.Context(), ports.DepositRequest{
		DriverID:         id,
		Amount:           req.Amount,
		ReceiptReference: req.ReceiptReference,
		Notes:            req.Notes,
		OperatorID:       middleware.SubjectFrom(c),
		ClientIP:         c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
