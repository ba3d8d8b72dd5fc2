package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptoledger/database"
	"cryptoledger/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, user_id, amount, currency, wallet_address, status, processed_at, tx_hash, created_at`

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := row.Scan(
		&withdrawal.ID,
		&withdrawal.UserID,
		&withdrawal.Amount,
		&withdrawal.Currency,
		&withdrawal.WalletAddress,
		&withdrawal.Status,
		&withdrawal.ProcessedAt,
		&withdrawal.TxHash,
		&withdrawal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// Create inserts a withdrawal and fills in its generated fields
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, amount, currency, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.Currency,
		withdrawal.WalletAddress,
		withdrawal.Status,
	).Scan(&withdrawal.ID, &withdrawal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal for user %s: %w", withdrawal.UserID, err)
	}

	return nil
}

func (r *WithdrawalRepository) getOne(ctx context.Context, query string, id, userID uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := scanWithdrawal(r.q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return withdrawal, err
}

// GetByIDForUser retrieves a withdrawal owned by userID
func (r *WithdrawalRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := r.getOne(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", id, err)
	}
	return withdrawal, nil
}

// LockByIDForUser retrieves a withdrawal owned by userID and locks the row
func (r *WithdrawalRepository) LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Withdrawal, error) {
	withdrawal, err := r.getOne(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock withdrawal %s: %w", id, err)
	}
	return withdrawal, nil
}

// ListByUser returns a user's withdrawals, newest first
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals for user %s: %w", userID, err)
	}
	defer rows.Close()

	withdrawals := make([]*models.Withdrawal, 0)
	for rows.Next() {
		withdrawal, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, withdrawal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}

	return withdrawals, nil
}

// UpdateStatus sets the status. A nil txHash or processedAt keeps the stored value.
func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.WithdrawalStatus, txHash *string, processedAt *time.Time) error {
	query := `
		UPDATE withdrawals
		SET status = $1,
		    tx_hash = COALESCE($2, tx_hash),
		    processed_at = COALESCE($3, processed_at)
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, status, txHash, processedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update status of withdrawal %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("withdrawal %s not found", id)
	}

	return nil
}

// DeletePending removes a withdrawal only while it is pending
func (r *WithdrawalRepository) DeletePending(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM withdrawals WHERE id = $1 AND user_id = $2 AND status = 'pending'`

	result, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete withdrawal %s: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}
