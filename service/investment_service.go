package service

import (
	"context"
	"fmt"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// investmentService implements the InvestmentService interface
type investmentService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewInvestmentService creates a new investment service
func NewInvestmentService(uowFactory UnitOfWorkFactory) InvestmentService {
	return &investmentService{
		uowFactory: uowFactory,
		now:        storedNow,
	}
}

// storedNow matches the microsecond precision of timestamptz so that a
// watermark read back from the database equals the one computed here
func storedNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// List returns the caller's investments with ROI figures computed at call time
func (s *investmentService) List(ctx context.Context, userID uuid.UUID) ([]*models.InvestmentSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	investments, err := uow.InvestmentRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	now := s.now()
	summaries := make([]*models.InvestmentSummary, len(investments))
	for i, investment := range investments {
		summaries[i] = &models.InvestmentSummary{
			Investment:  investment,
			ROISnapshot: CalculateROI(investment, now),
		}
	}
	return summaries, nil
}

// Create moves amount from the caller's balance into a new mining investment
func (s *investmentService) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, currency models.Currency) (*models.Investment, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(currency); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Row lock serializes concurrent debits for the same user
	user, err := uow.UserRepository().LockByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return nil, NewError(ErrNotFound, "User not found")
	}

	if user.Balance.LessThan(amount) {
		return nil, NewError(ErrInsufficientFunds, "Insufficient balance")
	}

	if err := uow.UserRepository().MoveToInvested(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	now := s.now()
	profile := GetMiningProfile(currency)
	investment := &models.Investment{
		UserID:         userID,
		Amount:         amount,
		Currency:       currency,
		ROIRate:        decimal.Zero,
		MiningHashrate: profile.Hashrate,
		StartDate:      now,
		LastROIUpdate:  now,
		Status:         models.InvestmentStatusActive,
	}
	if err := uow.InvestmentRepository().Create(ctx, investment); err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}

	initial := &models.ROIHistory{
		InvestmentID:      investment.ID,
		ROIAmount:         decimal.Zero,
		MiningPerformance: profile.Hashrate,
		RecordedAt:        now,
	}
	if err := uow.ROIHistoryRepository().Record(ctx, initial); err != nil {
		return nil, fmt.Errorf("failed to record initial roi history: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance.Sub(amount),
		ChangeAmount:    amount.Neg(),
		TransactionType: models.TransactionTypeInvestment,
		TransactionMetadata: map[string]any{
			"currency":        currency,
			"mining_hashrate": profile.Hashrate,
		},
		RelatedID:   &investment.ID,
		RelatedType: relatedType(models.RelatedTypeInvestment),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.InvestmentCreatedEvent{
		InvestmentID:   investment.ID,
		UserID:         userID,
		Amount:         amount,
		Currency:       currency,
		MiningHashrate: profile.Hashrate,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"investmentID": investment.ID,
		"userID":       userID,
		"amount":       amount.String(),
		"currency":     currency,
	}).Info("Investment created")

	return investment, nil
}

// Get returns one of the caller's investments with current ROI figures and history
func (s *investmentService) Get(ctx context.Context, userID, investmentID uuid.UUID) (*models.InvestmentDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	investment, err := uow.InvestmentRepository().GetByIDForUser(ctx, investmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	if investment == nil {
		return nil, NewError(ErrNotFound, "Investment not found")
	}

	history, err := uow.ROIHistoryRepository().ListByInvestment(ctx, investment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roi history: %w", err)
	}

	return &models.InvestmentDetail{
		Investment: models.InvestmentSummary{
			Investment:  investment,
			ROISnapshot: CalculateROI(investment, s.now()),
		},
		ROIHistory: history,
	}, nil
}

// UpdateROI persists the ROI figures at now. Only the amount accrued since the
// previous update is added to the user's total_roi.
func (s *investmentService) UpdateROI(ctx context.Context, userID, investmentID uuid.UUID) (*models.ROIUpdateResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	investment, err := uow.InvestmentRepository().LockByIDForUser(ctx, investmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock investment: %w", err)
	}
	if investment == nil {
		return nil, NewError(ErrNotFound, "Investment not found")
	}

	now := s.now()
	snapshot := CalculateROI(investment, now)
	accrued := AccruedSince(investment, now)

	// A clock that moved backwards must not rewind the accrual watermark
	watermark := now
	if watermark.Before(investment.LastROIUpdate) {
		watermark = investment.LastROIUpdate
	}

	if err := uow.InvestmentRepository().UpdateROI(ctx, investment.ID, snapshot.DailyRate, watermark); err != nil {
		return nil, fmt.Errorf("failed to update investment roi: %w", err)
	}

	entry := &models.ROIHistory{
		InvestmentID:      investment.ID,
		ROIAmount:         snapshot.CurrentROI,
		MiningPerformance: investment.MiningHashrate,
		RecordedAt:        now,
	}
	if err := uow.ROIHistoryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record roi history: %w", err)
	}

	if accrued.IsPositive() {
		if err := uow.UserRepository().AddROI(ctx, investment.UserID, accrued); err != nil {
			return nil, fmt.Errorf("failed to add roi to user: %w", err)
		}
	}

	uow.EventBus().Publish(events.ROIAccruedEvent{
		InvestmentID: investment.ID,
		UserID:       investment.UserID,
		CurrentROI:   snapshot.CurrentROI,
		Accrued:      accrued,
		DailyRate:    snapshot.DailyRate,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"investmentID": investment.ID,
		"userID":       investment.UserID,
		"currentROI":   snapshot.CurrentROI.String(),
		"accrued":      accrued.String(),
	}).Debug("Investment ROI updated")

	return &models.ROIUpdateResult{
		InvestmentID: investment.ID,
		CurrentROI:   snapshot.CurrentROI,
		Accrued:      accrued,
		TotalValue:   snapshot.TotalValue,
	}, nil
}

// ListActive returns every active investment across all users
func (s *investmentService) ListActive(ctx context.Context) ([]*models.Investment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	investments, err := uow.InvestmentRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active investments: %w", err)
	}
	return investments, nil
}
