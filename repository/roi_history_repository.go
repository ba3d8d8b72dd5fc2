package repository

import (
	"context"
	"fmt"

	"cryptoledger/database"
	"cryptoledger/models"

	"github.com/google/uuid"
)

// ROIHistoryRepository implements the ROIHistoryRepository interface
type ROIHistoryRepository struct {
	q queryable
}

// NewROIHistoryRepository creates a new ROI history repository
func NewROIHistoryRepository(db *database.DB) *ROIHistoryRepository {
	return &ROIHistoryRepository{q: db.Pool}
}

// newROIHistoryRepositoryWithTx creates a new ROI history repository with a transaction
func newROIHistoryRepositoryWithTx(tx queryable) *ROIHistoryRepository {
	return &ROIHistoryRepository{q: tx}
}

// Record appends a history entry
func (r *ROIHistoryRepository) Record(ctx context.Context, history *models.ROIHistory) error {
	query := `
		INSERT INTO investment_roi_history (investment_id, roi_amount, mining_performance, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		history.InvestmentID,
		history.ROIAmount,
		history.MiningPerformance,
		history.RecordedAt,
	).Scan(&history.ID)
	if err != nil {
		return fmt.Errorf("failed to record roi history for investment %s: %w", history.InvestmentID, err)
	}

	return nil
}

// ListByInvestment returns an investment's history, newest first
func (r *ROIHistoryRepository) ListByInvestment(ctx context.Context, investmentID uuid.UUID) ([]*models.ROIHistory, error) {
	query := `
		SELECT id, investment_id, roi_amount, mining_performance, recorded_at
		FROM investment_roi_history
		WHERE investment_id = $1
		ORDER BY recorded_at DESC
	`

	rows, err := r.q.Query(ctx, query, investmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roi history for investment %s: %w", investmentID, err)
	}
	defer rows.Close()

	history := make([]*models.ROIHistory, 0)
	for rows.Next() {
		var entry models.ROIHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.InvestmentID,
			&entry.ROIAmount,
			&entry.MiningPerformance,
			&entry.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roi history: %w", err)
		}
		history = append(history, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roi history: %w", err)
	}

	return history, nil
}
