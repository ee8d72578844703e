package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"settlement-ledger/internal/core/domain"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerSettings are the deployment parameters of the settlement engine.
type LedgerSettings struct {
	Currency    string
	Policy      domain.WalletPolicy
	DefaultRate decimal.Decimal
	MaxAttempts int
	CacheTTL    time.Duration
}

// SettlementServiceImpl implements ports.SettlementService.
type SettlementServiceImpl struct {
	tripRepo    ports.TripRepository
	driverRepo  ports.DriverRepository
	accountRepo ports.AccountRepository
	ledgerRepo  ports.LedgerRepository
	cache       ports.SettlementCache
	notifier    ports.Notifier
	auditSvc    ports.AuditService
	transactor  ports.DBTransactor
	settings    LedgerSettings
	log         zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	tripRepo ports.TripRepository,
	driverRepo ports.DriverRepository,
	accountRepo ports.AccountRepository,
	ledgerRepo ports.LedgerRepository,
	cache ports.SettlementCache,
	notifier ports.Notifier,
	auditSvc ports.AuditService,
	transactor ports.DBTransactor,
	settings LedgerSettings,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{
		tripRepo:    tripRepo,
		driverRepo:  driverRepo,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		cache:       cache,
		notifier:    notifier,
		auditSvc:    auditSvc,
		transactor:  transactor,
		settings:    settings,
		log:         log,
	}
}

// settleOutcome carries what the post-commit steps need.
type settleOutcome struct {
	result     *domain.SettlementResult
	decision   domain.WalletDecision
	transition domain.WalletTransition
}

// Settle posts the commission of a completed cash trip exactly once.
// Repeat calls for a collected trip succeed without side effects.
func (s *SettlementServiceImpl) Settle(ctx context.Context, tripID uuid.UUID) (*domain.SettlementResult, error) {
	cacheKey := domain.SettlementCacheKey(tripID)

	// Layer 1: Redis cache
	cached, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		s.log.Warn().Err(err).Str("trip_id", tripID.String()).Msg("settlement cache lookup failed, falling through to DB")
	}
	if cached != nil {
		var res domain.SettlementResult
		if err := json.Unmarshal(cached, &res); err == nil {
			res.AlreadySettled = true
			return &res, nil
		}
		s.log.Warn().Str("trip_id", tripID.String()).Msg("discarding unreadable cached settlement")
	}

	// Layer 2: trip row lock + status CAS inside the transaction
	var out *settleOutcome
	err = withRetry(ctx, s.settings.MaxAttempts, s.log.With().Str("trip_id", tripID.String()).Logger(), func() error {
		o, err := s.settleOnce(ctx, tripID)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.result.AlreadySettled {
		s.log.Debug().Str("trip_id", tripID.String()).Msg("trip already settled, nothing to do")
		return out.result, nil
	}

	s.afterCommit(ctx, out)
	return out.result, nil
}

func (s *SettlementServiceImpl) settleOnce(ctx context.Context, tripID uuid.UUID) (*settleOutcome, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	trip, err := s.tripRepo.GetByIDForUpdate(ctx, dbTx, tripID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock trip: %w", err))
	}
	if trip == nil {
		return nil, apperror.ErrNotFound("trip")
	}
	if trip.IsSettled() {
		res := &domain.SettlementResult{
			TripID:         trip.ID,
			Fare:           trip.Fare(),
			AlreadySettled: true,
			SettledAt:      trip.UpdatedAt,
		}
		if trip.DriverID != nil {
			res.DriverID = *trip.DriverID
		}
		return &settleOutcome{result: res}, nil
	}
	if trip.DriverID == nil {
		return nil, apperror.ErrTripWithoutDriver()
	}
	if !trip.IsCash() {
		return nil, apperror.ErrTripNotCash()
	}

	driver, err := s.driverRepo.GetByIDForUpdate(ctx, dbTx, *trip.DriverID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock driver: %w", err))
	}
	if driver == nil {
		return nil, apperror.ErrNotFound("driver")
	}

	fare := trip.Fare()
	commission, err := domain.Commission(fare, driver.EffectiveCommissionRate(s.settings.DefaultRate))
	if errors.Is(err, domain.ErrNegativeFare) {
		return nil, apperror.ErrInvalidAmount()
	}
	if err != nil {
		return nil, apperror.ErrInvalidCommissionRate(err)
	}

	wallet, err := s.accountRepo.EnsureDriverWallet(ctx, dbTx, driver.ID, s.settings.Currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("ensure wallet: %w", err))
	}
	platform, err := s.accountRepo.EnsurePlatformRevenue(ctx, dbTx, s.settings.Currency)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("ensure platform revenue: %w", err))
	}

	now := time.Now().UTC()
	debit, credit := domain.NewCommissionPostings(wallet.ID, platform.ID, trip.ID, commission, now)
	if err := s.ledgerRepo.Append(ctx, dbTx, debit, credit); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("append entries: %w", err))
	}

	decision := s.settings.Policy.Evaluate(driver.Wallet.Balance - commission)
	if err := s.driverRepo.UpdateWallet(ctx, dbTx, driver.ID, decision.State()); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update wallet: %w", err))
	}

	if err := trip.MarkCollected(); err != nil {
		return nil, errConcurrentUpdate
	}
	collected, err := s.tripRepo.MarkCollected(ctx, dbTx, trip)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("mark trip collected: %w", err))
	}
	if !collected {
		return nil, errConcurrentUpdate
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	return &settleOutcome{
		result: &domain.SettlementResult{
			TripID:        trip.ID,
			DriverID:      driver.ID,
			Fare:          fare,
			Commission:    commission,
			WalletBalance: decision.Balance,
			WalletStatus:  decision.Status,
			WalletLocked:  decision.Locked,
			DebitEntryID:  &debit.ID,
			CreditEntryID: &credit.ID,
			SettledAt:     now,
		},
		decision:   decision,
		transition: domain.Transition(driver.Wallet, decision),
	}, nil
}

// afterCommit runs the best-effort steps. None of them can undo the settlement.
func (s *SettlementServiceImpl) afterCommit(ctx context.Context, out *settleOutcome) {
	res := out.result

	if data, err := json.Marshal(res); err != nil {
		s.log.Warn().Err(err).Str("trip_id", res.TripID.String()).Msg("failed to marshal settlement for cache")
	} else if err := s.cache.Set(ctx, domain.SettlementCacheKey(res.TripID), data, s.settings.CacheTTL); err != nil {
		s.log.Warn().Err(err).Str("trip_id", res.TripID.String()).Msg("failed to cache settlement in redis")
	}

	if out.decision.Notice != nil {
		n := domain.NewNotification(res.DriverID, *out.decision.Notice, res.SettledAt)
		if err := s.notifier.Notify(ctx, n); err != nil {
			s.log.Warn().Err(err).Str("driver_id", res.DriverID.String()).Msg("wallet notification dropped")
		}
	}

	details, _ := json.Marshal(map[string]any{
		"driver_id":     res.DriverID,
		"fare":          res.Fare,
		"commission":    res.Commission,
		"new_balance":   res.WalletBalance,
		"wallet_status": res.WalletStatus,
		"became_locked": out.transition.Locked,
	})
	s.auditSvc.Log(ctx, &domain.AuditLog{
		ID:           uuid.New(),
		Action:       domain.AuditActionSettleTrip,
		ResourceType: "trip",
		ResourceID:   res.TripID.String(),
		Details:      string(details),
		CreatedAt:    res.SettledAt,
	})

	event := s.log.Info()
	if out.transition.Locked {
		event = s.log.Warn()
	}
	event.
		Str("trip_id", res.TripID.String()).
		Str("driver_id", res.DriverID.String()).
		Int64("commission", res.Commission).
		Int64("new_balance", res.WalletBalance).
		Str("wallet_status", string(res.WalletStatus)).
		Msg("trip settled")
}
