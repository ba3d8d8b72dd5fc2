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

const depositColumns = `id, user_id, amount, currency, wallet_address, tx_hash, status, confirmed_at, created_at`

// DepositRepository implements the DepositRepository interface
type DepositRepository struct {
	q queryable
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.DB) *DepositRepository {
	return &DepositRepository{q: db.Pool}
}

// newDepositRepositoryWithTx creates a new deposit repository with a transaction
func newDepositRepositoryWithTx(tx queryable) *DepositRepository {
	return &DepositRepository{q: tx}
}

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var deposit models.Deposit
	err := row.Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.Amount,
		&deposit.Currency,
		&deposit.WalletAddress,
		&deposit.TxHash,
		&deposit.Status,
		&deposit.ConfirmedAt,
		&deposit.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

// Create inserts a deposit and fills in its generated fields
func (r *DepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	query := `
		INSERT INTO deposits (user_id, amount, currency, wallet_address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		deposit.UserID,
		deposit.Amount,
		deposit.Currency,
		deposit.WalletAddress,
		deposit.Status,
	).Scan(&deposit.ID, &deposit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit for user %s: %w", deposit.UserID, err)
	}

	return nil
}

// GetByIDForUser retrieves a deposit owned by userID
func (r *DepositRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1 AND user_id = $2`

	deposit, err := scanDeposit(r.q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit %s: %w", id, err)
	}
	return deposit, nil
}

// ListByUser returns a user's deposits, newest first
func (r *DepositRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits for user %s: %w", userID, err)
	}
	defer rows.Close()

	deposits := make([]*models.Deposit, 0)
	for rows.Next() {
		deposit, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, deposit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}

	return deposits, nil
}

// Settle moves a pending deposit to status in a single guarded update.
// It returns nil when the deposit is absent, owned by someone else or no longer pending.
func (r *DepositRepository) Settle(ctx context.Context, id, userID uuid.UUID, status models.DepositStatus, txHash *string, at time.Time) (*models.Deposit, error) {
	query := `
		UPDATE deposits
		SET status = $3::text,
		    tx_hash = COALESCE($4, tx_hash),
		    confirmed_at = CASE WHEN $3::text = 'confirmed' THEN $5 ELSE confirmed_at END
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
		RETURNING ` + depositColumns

	deposit, err := scanDeposit(r.q.QueryRow(ctx, query, id, userID, status, txHash, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle deposit %s: %w", id, err)
	}
	return deposit, nil
}
