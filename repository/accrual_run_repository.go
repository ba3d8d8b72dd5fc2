package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cryptoledger/database"
	"cryptoledger/models"

	"github.com/jackc/pgx/v5"
)

// AccrualRunRepository implements the AccrualRunRepository interface.
// Runs are written outside any unit of work so a sweep is recorded even when
// individual investments fail.
type AccrualRunRepository struct {
	db *database.DB
}

// NewAccrualRunRepository creates a new accrual run repository
func NewAccrualRunRepository(db *database.DB) *AccrualRunRepository {
	return &AccrualRunRepository{db: db}
}

// Create records a finished sweep
func (r *AccrualRunRepository) Create(ctx context.Context, run *models.AccrualRun) error {
	// Convert summary to JSON
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO accrual_runs
		(started_at, finished_at, investments_processed, investments_failed, total_roi_accrued, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = r.db.QueryRow(ctx, query,
		run.StartedAt,
		run.FinishedAt,
		run.InvestmentsProcessed,
		run.InvestmentsFailed,
		run.TotalROIAccrued,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create accrual run started at %s: %w", run.StartedAt.Format("2006-01-02T15:04:05Z07:00"), err)
	}

	return nil
}

// GetLatest returns the most recent sweep
func (r *AccrualRunRepository) GetLatest(ctx context.Context) (*models.AccrualRun, error) {
	query := `
		SELECT id, started_at, finished_at, investments_processed, investments_failed,
		       total_roi_accrued, execution_summary, created_at
		FROM accrual_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	var run models.AccrualRun
	var summaryJSON []byte

	err := r.db.QueryRow(ctx, query).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.InvestmentsProcessed,
		&run.InvestmentsFailed,
		&run.TotalROIAccrued,
		&summaryJSON,
		&run.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest accrual run: %w", err)
	}

	// Unmarshal execution summary
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}

	return &run, nil
}
