package service

import (
	"context"
	"fmt"
	"time"

	"cryptoledger/events"
	"cryptoledger/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// depositService implements the DepositService interface
type depositService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewDepositService creates a new deposit service
func NewDepositService(uowFactory UnitOfWorkFactory) DepositService {
	return &depositService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// List returns the caller's deposits, newest first
func (s *depositService) List(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deposits, err := uow.DepositRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

// Create records a pending deposit. Balance is only credited on confirmation.
func (s *depositService) Create(ctx context.Context, userID uuid.UUID, req CreateDepositRequest) (*models.Deposit, error) {
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

	deposit := &models.Deposit{
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Status:        models.DepositStatusPending,
	}
	if err := uow.DepositRepository().Create(ctx, deposit); err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	uow.EventBus().Publish(events.DepositCreatedEvent{
		DepositID: deposit.ID,
		UserID:    userID,
		Amount:    deposit.Amount,
		Currency:  deposit.Currency,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"depositID": deposit.ID,
		"userID":    userID,
		"amount":    deposit.Amount.String(),
		"currency":  deposit.Currency,
	}).Info("Deposit created")

	return deposit, nil
}

// Confirm settles a pending deposit. A confirmed deposit credits the balance exactly once.
func (s *depositService) Confirm(ctx context.Context, userID, depositID uuid.UUID, status models.DepositStatus, txHash *string) (*models.Deposit, error) {
	if status != models.DepositStatusConfirmed && status != models.DepositStatusFailed {
		return nil, NewError(ErrValidation, "status must be one of [confirmed, failed]")
	}
	if err := validateTxHash(txHash); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the user first so the balance snapshot for history matches what we credit
	user, err := uow.UserRepository().LockByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	if user == nil {
		return nil, NewError(ErrNotFound, "User not found")
	}

	deposit, err := uow.DepositRepository().Settle(ctx, depositID, userID, status, txHash, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to settle deposit: %w", err)
	}
	if deposit == nil {
		return nil, s.settleRejection(ctx, uow, userID, depositID)
	}

	if deposit.Status == models.DepositStatusConfirmed {
		if err := uow.UserRepository().AddBalance(ctx, userID, deposit.Amount); err != nil {
			return nil, fmt.Errorf("failed to credit balance: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          userID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance.Add(deposit.Amount),
			ChangeAmount:    deposit.Amount,
			TransactionType: models.TransactionTypeDeposit,
			TransactionMetadata: map[string]any{
				"currency": deposit.Currency,
				"tx_hash":  deposit.TxHash,
			},
			RelatedID:   &deposit.ID,
			RelatedType: relatedType(models.RelatedTypeDeposit),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.DepositSettledEvent{
		DepositID: deposit.ID,
		UserID:    userID,
		Amount:    deposit.Amount,
		Currency:  deposit.Currency,
		Status:    deposit.Status,
		TxHash:    deposit.TxHash,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"depositID": deposit.ID,
		"userID":    userID,
		"status":    deposit.Status,
		"amount":    deposit.Amount.String(),
	}).Info("Deposit settled")

	return deposit, nil
}

// settleRejection explains why a guarded settle touched no row
func (s *depositService) settleRejection(ctx context.Context, uow UnitOfWork, userID, depositID uuid.UUID) error {
	existing, err := uow.DepositRepository().GetByIDForUser(ctx, depositID, userID)
	if err != nil {
		return fmt.Errorf("failed to get deposit: %w", err)
	}
	if existing == nil {
		return NewError(ErrNotFound, "Deposit not found")
	}
	if existing.Status == models.DepositStatusConfirmed {
		return NewError(ErrInvalidStateTransition, "Deposit already confirmed")
	}
	return NewError(ErrInvalidStateTransition, "Deposit is not pending")
}
