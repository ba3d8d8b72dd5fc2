package repository

import (
	"context"
	"errors"
	"fmt"

	"cryptoledger/database"
	"cryptoledger/events"
	"cryptoledger/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	balanceHistory   service.BalanceHistoryRepository
	depositRepo      service.DepositRepository
	investmentRepo   service.InvestmentRepository
	roiHistoryRepo   service.ROIHistoryRepository
	withdrawalRepo   service.WithdrawalRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistory = newBalanceHistoryRepositoryWithTx(tx)
	u.depositRepo = newDepositRepositoryWithTx(tx)
	u.investmentRepo = newInvestmentRepositoryWithTx(tx)
	u.roiHistoryRepo = newROIHistoryRepositoryWithTx(tx)
	u.withdrawalRepo = newWithdrawalRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func notStarted() {
	panic("unit of work not started - call Begin() first")
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		notStarted()
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistory == nil {
		notStarted()
	}
	return u.balanceHistory
}

// DepositRepository returns the deposit repository for this unit of work
func (u *unitOfWork) DepositRepository() service.DepositRepository {
	if u.depositRepo == nil {
		notStarted()
	}
	return u.depositRepo
}

// InvestmentRepository returns the investment repository for this unit of work
func (u *unitOfWork) InvestmentRepository() service.InvestmentRepository {
	if u.investmentRepo == nil {
		notStarted()
	}
	return u.investmentRepo
}

// ROIHistoryRepository returns the ROI history repository for this unit of work
func (u *unitOfWork) ROIHistoryRepository() service.ROIHistoryRepository {
	if u.roiHistoryRepo == nil {
		notStarted()
	}
	return u.roiHistoryRepo
}

// WithdrawalRepository returns the withdrawal repository for this unit of work
func (u *unitOfWork) WithdrawalRepository() service.WithdrawalRepository {
	if u.withdrawalRepo == nil {
		notStarted()
	}
	return u.withdrawalRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		notStarted()
	}
	return u.transactionalBus
}
