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
	"github.com/shopspring/decimal"
)

const investmentColumns = `id, user_id, amount, currency, roi_rate, mining_hashrate, start_date, last_roi_update, status`

// InvestmentRepository implements the InvestmentRepository interface
type InvestmentRepository struct {
	q queryable
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *database.DB) *InvestmentRepository {
	return &InvestmentRepository{q: db.Pool}
}

// newInvestmentRepositoryWithTx creates a new investment repository with a transaction
func newInvestmentRepositoryWithTx(tx queryable) *InvestmentRepository {
	return &InvestmentRepository{q: tx}
}

func scanInvestment(row pgx.Row) (*models.Investment, error) {
	var investment models.Investment
	err := row.Scan(
		&investment.ID,
		&investment.UserID,
		&investment.Amount,
		&investment.Currency,
		&investment.ROIRate,
		&investment.MiningHashrate,
		&investment.StartDate,
		&investment.LastROIUpdate,
		&investment.Status,
	)
	if err != nil {
		return nil, err
	}
	return &investment, nil
}

func (r *InvestmentRepository) list(ctx context.Context, query string, args ...any) ([]*models.Investment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := make([]*models.Investment, 0)
	for rows.Next() {
		investment, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		investments = append(investments, investment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}

	return investments, nil
}

// Create inserts an investment and fills in its generated ID
func (r *InvestmentRepository) Create(ctx context.Context, investment *models.Investment) error {
	query := `
		INSERT INTO investments (user_id, amount, currency, roi_rate, mining_hashrate, start_date, last_roi_update, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		investment.UserID,
		investment.Amount,
		investment.Currency,
		investment.ROIRate,
		investment.MiningHashrate,
		investment.StartDate,
		investment.LastROIUpdate,
		investment.Status,
	).Scan(&investment.ID)
	if err != nil {
		return fmt.Errorf("failed to create investment for user %s: %w", investment.UserID, err)
	}

	return nil
}

func (r *InvestmentRepository) getOne(ctx context.Context, query string, id, userID uuid.UUID) (*models.Investment, error) {
	investment, err := scanInvestment(r.q.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return investment, err
}

// GetByIDForUser retrieves an investment owned by userID
func (r *InvestmentRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error) {
	investment, err := r.getOne(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get investment %s: %w", id, err)
	}
	return investment, nil
}

// LockByIDForUser retrieves an investment owned by userID and locks the row
func (r *InvestmentRepository) LockByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Investment, error) {
	investment, err := r.getOne(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock investment %s: %w", id, err)
	}
	return investment, nil
}

// ListByUser returns a user's investments, newest start first
func (r *InvestmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Investment, error) {
	investments, err := r.list(ctx, `SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list investments for user %s: %w", userID, err)
	}
	return investments, nil
}

// ListActive returns every active investment, oldest accrual first
func (r *InvestmentRepository) ListActive(ctx context.Context) ([]*models.Investment, error) {
	investments, err := r.list(ctx, `SELECT `+investmentColumns+` FROM investments WHERE status = $1 ORDER BY last_roi_update ASC`, models.InvestmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active investments: %w", err)
	}
	return investments, nil
}

// UpdateROI stores the latest daily rate and accrual watermark
func (r *InvestmentRepository) UpdateROI(ctx context.Context, id uuid.UUID, roiRate decimal.Decimal, at time.Time) error {
	query := `
		UPDATE investments
		SET roi_rate = $1, last_roi_update = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, roiRate, at, id)
	if err != nil {
		return fmt.Errorf("failed to update roi for investment %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("investment %s not found", id)
	}

	return nil
}
