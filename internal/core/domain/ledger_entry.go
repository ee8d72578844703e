package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the side of a posting.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// EntryType classifies why a posting exists.
type EntryType string

const (
	EntryTypeCommission EntryType = "commission"
	EntryTypeSettlement EntryType = "settlement"
	EntryTypeOther      EntryType = "other"
)

// LedgerEntry is an immutable posting against exactly one account.
// Amount is never negative; the sign comes from Direction.
type LedgerEntry struct {
	ID                  uuid.UUID  `json:"id"`
	AccountID           uuid.UUID  `json:"account_id"`
	Amount              int64      `json:"amount"`
	Direction           Direction  `json:"direction"`
	EntryType           EntryType  `json:"entry_type"`
	RelatedTripID       *uuid.UUID `json:"related_trip_id,omitempty"`
	RelatedSettlementID *uuid.UUID `json:"related_settlement_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Signed returns the entry's effect on its account balance.
func (e LedgerEntry) Signed() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.Amount
}

// Entries is an ordered, read-only view over ledger postings.
type Entries []LedgerEntry

// Balance folds the entries into sum(credits) - sum(debits).
func (es Entries) Balance() int64 {
	var total int64
	for _, e := range es {
		total += e.Signed()
	}
	return total
}

// ForAccount returns the entries posted to accountID, order preserved.
func (es Entries) ForAccount(accountID uuid.UUID) Entries {
	return es.filter(func(e LedgerEntry) bool { return e.AccountID == accountID })
}

// ForTrip returns the entries referencing tripID, order preserved.
func (es Entries) ForTrip(tripID uuid.UUID) Entries {
	return es.filter(func(e LedgerEntry) bool {
		return e.RelatedTripID != nil && *e.RelatedTripID == tripID
	})
}

func (es Entries) filter(keep func(LedgerEntry) bool) Entries {
	out := make(Entries, 0, len(es))
	for _, e := range es {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// NewCommissionPostings builds the balanced pair for a trip commission:
// a debit on the driver's wallet and a credit on platform revenue.
func NewCommissionPostings(walletID, platformID, tripID uuid.UUID, amount int64, now time.Time) (LedgerEntry, LedgerEntry) {
	trip := tripID
	debit := LedgerEntry{
		ID:            uuid.New(),
		AccountID:     walletID,
		Amount:        amount,
		Direction:     DirectionDebit,
		EntryType:     EntryTypeCommission,
		RelatedTripID: &trip,
		CreatedAt:     now,
	}
	credit := LedgerEntry{
		ID:            uuid.New(),
		AccountID:     platformID,
		Amount:        amount,
		Direction:     DirectionCredit,
		EntryType:     EntryTypeCommission,
		RelatedTripID: &trip,
		CreatedAt:     now,
	}
	return debit, credit
}

// NewDepositCredit builds the wallet credit for an administrative cash deposit.
func NewDepositCredit(walletID, depositID uuid.UUID, amount int64, now time.Time) LedgerEntry {
	ref := depositID
	return LedgerEntry{
		ID:                  uuid.New(),
		AccountID:           walletID,
		Amount:              amount,
		Direction:           DirectionCredit,
		EntryType:           EntryTypeSettlement,
		RelatedSettlementID: &ref,
		CreatedAt:           now,
	}
}
