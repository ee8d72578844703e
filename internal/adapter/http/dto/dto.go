package dto

import (
	"time"

	"settlement-ledger/internal/core/domain"
)

// TripURI binds the :trip_id path parameter.
type TripURI struct {
	TripID string `uri:"trip_id" binding:"required,uuid"`
}

// DriverURI binds the :driver_id path parameter.
type DriverURI struct {
	DriverID string `uri:"driver_id" binding:"required,uuid"`
}

// DepositRequest is the request body for a manual cash deposit.
// Amount is range-checked by the deposit service (LEDGER_001).
type DepositRequest struct {
	Amount           int64   `json:"amount"`
	ReceiptReference *string `json:"receipt_reference,omitempty" binding:"omitempty,max=100,receipt_ref"`
	Notes            *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// PageQuery binds ledger paging parameters.
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LedgerEntryResponse is one ledger posting as shown to API callers.
type LedgerEntryResponse struct {
	ID                  string  `json:"id"`
	AccountID           string  `json:"account_id"`
	Amount              int64   `json:"amount"`
	SignedAmount        int64   `json:"signed_amount"`
	Direction           string  `json:"direction"`
	EntryType           string  `json:"entry_type"`
	RelatedTripID       *string `json:"related_trip_id,omitempty"`
	RelatedSettlementID *string `json:"related_settlement_id,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// LedgerListResponse wraps a paginated ledger listing.
type LedgerListResponse struct {
	Items      []LedgerEntryResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// ToLedgerEntryResponse converts a domain entry for the API.
func ToLedgerEntryResponse(e domain.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:           e.ID.String(),
		AccountID:    e.AccountID.String(),
		Amount:       e.Amount,
		SignedAmount: e.Signed(),
		Direction:    string(e.Direction),
		EntryType:    string(e.EntryType),
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.RelatedTripID != nil {
		s := e.RelatedTripID.String()
		resp.RelatedTripID = &s
	}
	if e.RelatedSettlementID != nil {
		s := e.RelatedSettlementID.String()
		resp.RelatedSettlementID = &s
	}
	return resp
}
