package service

import (
	"context"
	"sync"
	"testing"
	"time"

	redisstore "settlement-ledger/internal/adapter/storage/redis"
	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// memStore is a serializable in-memory stand-in for the ledger tables.
// A transaction holds the store lock from Begin until Commit or Rollback
// and works on a private copy that Commit publishes.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	trips    map[uuid.UUID]domain.Trip
	drivers  map[uuid.UUID]domain.Driver
	accounts []domain.Account
	entries  []domain.LedgerEntry
	deposits []domain.Deposit
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		trips:   map[uuid.UUID]domain.Trip{},
		drivers: map[uuid.UUID]domain.Driver{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		trips:    make(map[uuid.UUID]domain.Trip, len(s.trips)),
		drivers:  make(map[uuid.UUID]domain.Driver, len(s.drivers)),
		accounts: append([]domain.Account(nil), s.accounts...),
		entries:  append([]domain.LedgerEntry(nil), s.entries...),
		deposits: append([]domain.Deposit(nil), s.deposits...),
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.drivers {
		c.drivers[k] = v
	}
	return c
}

type memTx struct {
	pgx.Tx
	store *memStore
	state *memState
	done  bool
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.state = t.state
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, state: s.state.clone()}, nil
}

// read runs fn against the committed state.
func (s *memStore) read(fn func(st *memState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

func txState(tx pgx.Tx) *memState {
	return tx.(*memTx).state
}

// addDriver seeds a driver. A non-zero opening balance is backed by a wallet
// account and an opening entry so the ledger stays the source of truth.
func (s *memStore) addDriver(balance int64) domain.Driver {
	policy := domain.DefaultWalletPolicy()
	d := domain.Driver{ID: uuid.New(), Name: "Driver", Wallet: policy.Evaluate(balance).State()}
	s.state.drivers[d.ID] = d
	if balance == 0 {
		return d
	}

	now := time.Now().UTC()
	wallet := domain.NewDriverWalletAccount(d.ID, "VND", now)
	s.state.accounts = append(s.state.accounts, *wallet)
	opening := domain.LedgerEntry{
		ID:        uuid.New(),
		AccountID: wallet.ID,
		Amount:    domain.Abs(balance),
		Direction: domain.DirectionCredit,
		EntryType: domain.EntryTypeOther,
		CreatedAt: now,
	}
	if balance < 0 {
		opening.Direction = domain.DirectionDebit
	}
	s.state.entries = append(s.state.entries, opening)
	return d
}

func (s *memStore) addCashTrip(driverID uuid.UUID, fare int64) domain.Trip {
	tr := domain.Trip{
		ID:            uuid.New(),
		DriverID:      &driverID,
		PaymentMethod: domain.PaymentMethodCash,
		PaymentStatus: domain.PaymentStatusUnpaid,
		FinalFare:     &fare,
	}
	s.state.trips[tr.ID] = tr
	return tr
}

// ---- repositories ----

type memTripRepo struct{ s *memStore }

func (r memTripRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Trip, error) {
	tr, ok := txState(tx).trips[id]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}

func (r memTripRepo) MarkCollected(_ context.Context, tx pgx.Tx, trip *domain.Trip) (bool, error) {
	st := txState(tx)
	stored, ok := st.trips[trip.ID]
	if !ok || stored.IsSettled() {
		return false, nil
	}
	stored.PaymentStatus = trip.PaymentStatus
	stored.CashCollected = trip.CashCollected
	stored.UpdatedAt = time.Now().UTC()
	st.trips[trip.ID] = stored
	return true, nil
}

type memDriverRepo struct{ s *memStore }

func (r memDriverRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Driver, error) {
	var out *domain.Driver
	r.s.read(func(st *memState) {
		if d, ok := st.drivers[id]; ok {
			out = &d
		}
	})
	return out, nil
}

func (r memDriverRepo) GetByIDForUpdate(_ context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Driver, error) {
	d, ok := txState(tx).drivers[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r memDriverRepo) UpdateWallet(_ context.Context, tx pgx.Tx, id uuid.UUID, state domain.WalletState) error {
	st := txState(tx)
	d := st.drivers[id]
	d.Wallet = state
	if state.Locked {
		d.IsOnline = false
	}
	st.drivers[id] = d
	return nil
}

func (r memDriverRepo) MarkOnline(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.state.drivers[id]
	if !ok || d.Wallet.Locked {
		return false, nil
	}
	d.IsOnline = true
	r.s.state.drivers[id] = d
	return true, nil
}

type memAccountRepo struct{ s *memStore }

func findWallet(st *memState, driverID uuid.UUID) *domain.Account {
	for i := range st.accounts {
		a := st.accounts[i]
		if a.IsDriverWallet() && *a.OwnerReference == driverID {
			return &a
		}
	}
	return nil
}

func (r memAccountRepo) EnsureDriverWallet(_ context.Context, tx pgx.Tx, driverID uuid.UUID, currency string) (*domain.Account, error) {
	st := txState(tx)
	if a := findWallet(st, driverID); a != nil {
		return a, nil
	}
	a := domain.NewDriverWalletAccount(driverID, currency, time.Now().UTC())
	st.accounts = append(st.accounts, *a)
	return a, nil
}

func (r memAccountRepo) EnsurePlatformRevenue(_ context.Context, tx pgx.Tx, currency string) (*domain.Account, error) {
	st := txState(tx)
	for i := range st.accounts {
		if st.accounts[i].Kind == domain.AccountKindPlatformRevenue {
			a := st.accounts[i]
			return &a, nil
		}
	}
	a := domain.NewPlatformRevenueAccount(currency, time.Now().UTC())
	st.accounts = append(st.accounts, *a)
	return a, nil
}

func (r memAccountRepo) GetDriverWallet(_ context.Context, driverID uuid.UUID) (*domain.Account, error) {
	var out *domain.Account
	r.s.read(func(st *memState) { out = findWallet(st, driverID) })
	return out, nil
}

func (r memAccountRepo) GetDriverWalletInTx(_ context.Context, tx pgx.Tx, driverID uuid.UUID) (*domain.Account, error) {
	return findWallet(txState(tx), driverID), nil
}

type memLedgerRepo struct{ s *memStore }

func (r memLedgerRepo) Append(_ context.Context, tx pgx.Tx, entries ...domain.LedgerEntry) error {
	st := txState(tx)
	st.entries = append(st.entries, entries...)
	return nil
}

func (r memLedgerRepo) ListByAccount(ctx context.Context, p ports.LedgerListParams) ([]domain.LedgerEntry, int64, error) {
	all, _ := r.AllByAccount(ctx, p.AccountID)
	start := (p.Page - 1) * p.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + p.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memLedgerRepo) AllByAccount(_ context.Context, accountID uuid.UUID) (domain.Entries, error) {
	var out domain.Entries
	r.s.read(func(st *memState) { out = domain.Entries(st.entries).ForAccount(accountID) })
	return out, nil
}

type memDepositRepo struct{ s *memStore }

func (r memDepositRepo) Create(_ context.Context, tx pgx.Tx, d *domain.Deposit) error {
	st := txState(tx)
	st.deposits = append(st.deposits, *d)
	return nil
}

// recordingNotifier keeps every notification it is handed.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) categories() []domain.NotificationCategory {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationCategory, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Category)
	}
	return out
}

type discardAudit struct{}

func (discardAudit) Log(context.Context, *domain.AuditLog) {}

// ledgerHarness wires the real services to the in-memory store and a miniredis cache.
type ledgerHarness struct {
	store    *memStore
	notifier *recordingNotifier
	settle   *SettlementServiceImpl
	deposit  *DepositServiceImpl
	drivers  *DriverServiceImpl
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := redisstore.NewSettlementCache(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	store := newMemStore()
	notifier := &recordingNotifier{}
	settings := testSettings()
	log := zerolog.Nop()

	trips, drivers, accounts := memTripRepo{store}, memDriverRepo{store}, memAccountRepo{store}
	ledger, deposits := memLedgerRepo{store}, memDepositRepo{store}

	return &ledgerHarness{
		store:    store,
		notifier: notifier,
		settle:   NewSettlementService(trips, drivers, accounts, ledger, cache, notifier, discardAudit{}, store, settings, log),
		deposit:  NewDepositService(drivers, accounts, ledger, deposits, notifier, discardAudit{}, store, settings, log),
		drivers:  NewDriverService(drivers, accounts, ledger, discardAudit{}, settings, log),
	}
}

// entriesForTrip returns every committed posting referencing tripID, in insertion order.
func (h *ledgerHarness) entriesForTrip(tripID uuid.UUID) domain.Entries {
	var out domain.Entries
	h.store.read(func(st *memState) { out = domain.Entries(st.entries).ForTrip(tripID) })
	return out
}

// allEntries returns every committed posting.
func (h *ledgerHarness) allEntries() domain.Entries {
	var out domain.Entries
	h.store.read(func(st *memState) { out = append(out, st.entries...) })
	return out
}
