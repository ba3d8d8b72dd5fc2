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

// DefaultMinWithdrawal is the smallest withdrawal accepted when none is configured
var DefaultMinWithdrawal = decimal.RequireFromString("0.001")

// withdrawalService implements the WithdrawalService interface
type withdrawalService struct {
	uowFactory    UnitOfWorkFactory
	minWithdrawal decimal.Decimal
	now           func() time.Time
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory, minWithdrawal decimal.Decimal) WithdrawalService {
	if !minWithdrawal.IsPositive() {
		minWithdrawal = DefaultMinWithdrawal
	}
	return &withdrawalService{
		uowFactory:    uowFactory,
		minWithdrawal: minWithdrawal,
		now:           time.Now,
	}
}

// List returns the caller's withdrawals, newest first
func (s *withdrawalService) List(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawals, err := uow.WithdrawalRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return withdrawals, nil
}

// Get returns one of the caller's withdrawals
func (s *withdrawalService) Get(ctx context.Context, userID, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByIDForUser(ctx, withdrawalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return nil, NewError(ErrNotFound, "Withdrawal not found")
	}
	return withdrawal, nil
}

// Create records a pending withdrawal. The balance is checked now but only debited on completion.
func (s *withdrawalService) Create(ctx context.Context, userID uuid.UUID, req CreateWithdrawalRequest) (*models.Withdrawal, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := validateCurrency(req.Currency); err != nil {
		return nil, err
	}
	if err := validateWalletAddress(req.WalletAddress); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().LockByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return nil, NewError(ErrNotFound, "User not found")
	}
	if user.Balance.LessThan(req.Amount) {
		return nil, NewError(ErrInsufficientFunds, "Insufficient balance")
	}
	if req.Amount.LessThan(s.minWithdrawal) {
		return nil, NewError(ErrValidation, "Minimum withdrawal amount is %s", s.minWithdrawal.String())
	}

	withdrawal := &models.Withdrawal{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Status:        models.WithdrawalStatusPending,
	}
	if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		WithdrawalID:  withdrawal.ID,
		UserID:        userID,
		Amount:        withdrawal.Amount,
		Currency:      withdrawal.Currency,
		WalletAddress: withdrawal.WalletAddress,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawal.ID,
		"userID":       userID,
		"amount":       withdrawal.Amount.String(),
	}).Info("Withdrawal requested")

	return withdrawal, nil
}

// checkTransition reports whether a withdrawal in from may move to to.
// Besides completed, rejected is terminal and processing cannot be re-entered.
func checkTransition(from, to models.WithdrawalStatus) error {
	switch {
	case from == models.WithdrawalStatusCompleted:
		return NewError(ErrAlreadyProcessed, "Withdrawal already completed")
	case from == models.WithdrawalStatusRejected:
		return NewError(ErrInvalidStateTransition, "Withdrawal already rejected")
	case from == models.WithdrawalStatusProcessing && to == models.WithdrawalStatusProcessing:
		return NewError(ErrInvalidStateTransition, "Withdrawal is already processing")
	}
	return nil
}

// Process moves a withdrawal forward. Only the transition into completed debits the balance.
func (s *withdrawalService) Process(ctx context.Context, userID, withdrawalID uuid.UUID, status models.WithdrawalStatus, txHash *string) (*models.Withdrawal, error) {
	switch status {
	case models.WithdrawalStatusProcessing, models.WithdrawalStatusCompleted, models.WithdrawalStatusRejected:
	default:
		return nil, NewError(ErrValidation, "status must be one of [processing, completed, rejected]")
	}
	if err := validateTxHash(txHash); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().LockByIDForUser(ctx, withdrawalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal: %w", err)
	}
	if withdrawal == nil {
		return nil, NewError(ErrNotFound, "Withdrawal not found")
	}

	oldStatus := withdrawal.Status
	if err := checkTransition(oldStatus, status); err != nil {
		return nil, err
	}

	var processedAt *time.Time
	if status == models.WithdrawalStatusProcessing || status == models.WithdrawalStatusCompleted {
		now := s.now()
		processedAt = &now
	}

	if status == models.WithdrawalStatusCompleted {
		if err := s.debit(ctx, uow, withdrawal, txHash); err != nil {
			return nil, err
		}
	}

	if err := uow.WithdrawalRepository().UpdateStatus(ctx, withdrawal.ID, status, txHash, processedAt); err != nil {
		return nil, fmt.Errorf("failed to update withdrawal status: %w", err)
	}

	withdrawal.Status = status
	if txHash != nil {
		withdrawal.TxHash = txHash
	}
	if processedAt != nil {
		withdrawal.ProcessedAt = processedAt
	}

	uow.EventBus().Publish(events.WithdrawalStatusChangedEvent{
		WithdrawalID: withdrawal.ID,
		UserID:       userID,
		Amount:       withdrawal.Amount,
		OldStatus:    oldStatus,
		NewStatus:    status,
		TxHash:       withdrawal.TxHash,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawal.ID,
		"userID":       userID,
		"oldStatus":    oldStatus,
		"newStatus":    status,
	}).Info("Withdrawal status changed")

	return withdrawal, nil
}

// debit removes a completed withdrawal's amount from the owner's balance
func (s *withdrawalService) debit(ctx context.Context, uow UnitOfWork, withdrawal *models.Withdrawal, txHash *string) error {
	user, err := uow.UserRepository().LockByID(ctx, withdrawal.UserID)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return NewError(ErrNotFound, "User not found")
	}
	if user.Balance.LessThan(withdrawal.Amount) {
		return NewError(ErrInsufficientFunds, "Insufficient balance")
	}

	if err := uow.UserRepository().DeductBalance(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
		return fmt.Errorf("failed to debit balance: %w", err)
	}

	metadata := map[string]any{
		"currency":       withdrawal.Currency,
		"wallet_address": withdrawal.WalletAddress,
	}
	if txHash != nil {
		metadata["tx_hash"] = *txHash
	}

	history := &models.BalanceHistory{
		UserID:              withdrawal.UserID,
		BalanceBefore:       user.Balance,
		BalanceAfter:        user.Balance.Sub(withdrawal.Amount),
		ChangeAmount:        withdrawal.Amount.Neg(),
		TransactionType:     models.TransactionTypeWithdrawal,
		TransactionMetadata: metadata,
		RelatedID:           &withdrawal.ID,
		RelatedType:         relatedType(models.RelatedTypeWithdrawal),
	}
	return RecordBalanceChange(ctx, uow, history)
}

// Cancel deletes a withdrawal that has not started processing
func (s *withdrawalService) Cancel(ctx context.Context, userID, withdrawalID uuid.UUID) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deleted, err := uow.WithdrawalRepository().DeletePending(ctx, withdrawalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete withdrawal: %w", err)
	}

	if !deleted {
		existing, err := uow.WithdrawalRepository().GetByIDForUser(ctx, withdrawalID, userID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if existing == nil {
			return NewError(ErrNotFound, "Withdrawal not found")
		}
		return NewError(ErrInvalidStateTransition, "Cannot cancel a withdrawal that is already processing or completed")
	}

	uow.EventBus().Publish(events.WithdrawalCancelledEvent{
		WithdrawalID: withdrawalID,
		UserID:       userID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawalID,
		"userID":       userID,
	}).Info("Withdrawal cancelled")

	return nil
}
