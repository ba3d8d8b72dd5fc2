package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoledger/metrics"
	"cryptoledger/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultAccrualInitialDelay is the wait before the first sweep after start
	DefaultAccrualInitialDelay = 2 * time.Second

	// DefaultAccrualInterval is the wait between sweeps
	DefaultAccrualInterval = time.Hour

	// maxRecordedFailures caps the failures kept in a run's execution summary
	maxRecordedFailures = 20
)

// ROIAccrualWorker periodically persists accrued ROI for every active investment
type ROIAccrualWorker struct {
	investments  InvestmentService
	runs         AccrualRunRepository
	initialDelay time.Duration
	interval     time.Duration
	now          func() time.Time
}

// NewROIAccrualWorker creates a new ROI accrual worker. Zero durations use the defaults.
func NewROIAccrualWorker(investments InvestmentService, runs AccrualRunRepository, initialDelay, interval time.Duration) *ROIAccrualWorker {
	if initialDelay <= 0 {
		initialDelay = DefaultAccrualInitialDelay
	}
	if interval <= 0 {
		interval = DefaultAccrualInterval
	}
	return &ROIAccrualWorker{
		investments:  investments,
		runs:         runs,
		initialDelay: initialDelay,
		interval:     interval,
		now:          time.Now,
	}
}

// Start runs sweeps in the background until ctx is cancelled or the returned
// stop function is called. Stop blocks until the worker goroutine has exited
// and may be called more than once.
func (w *ROIAccrualWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithFields(log.Fields{
			"initialDelay": w.initialDelay,
			"interval":     w.interval,
		}).Info("ROI accrual worker started")

		wait := w.initialDelay
		for {
			select {
			case <-ctx.Done():
				log.Info("ROI accrual worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("ROI accrual worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
			}

			if _, err := w.RunOnce(ctx); err != nil {
				log.WithError(err).Error("ROI accrual sweep failed")
			}
			wait = w.interval
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopChan)
		})
		<-done
	}
}

// RunOnce accrues ROI on every active investment and records the sweep.
// A failing investment is logged and skipped.
func (w *ROIAccrualWorker) RunOnce(ctx context.Context) (*models.AccrualRun, error) {
	timer := time.Now()
	defer func() {
		metrics.AccrualSweepDuration.Observe(time.Since(timer).Seconds())
	}()

	run := &models.AccrualRun{
		StartedAt:       w.now(),
		TotalROIAccrued: decimal.Zero,
	}

	investments, err := w.investments.ListActive(ctx)
	if err != nil {
		metrics.AccrualSweeps.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to list active investments: %w", err)
	}

	failures := make([]map[string]any, 0)
	for _, investment := range investments {
		if ctx.Err() != nil {
			break
		}

		result, err := w.investments.UpdateROI(ctx, investment.UserID, investment.ID)
		if err != nil {
			run.InvestmentsFailed++
			metrics.AccrualInvestments.WithLabelValues("failed").Inc()
			log.WithFields(log.Fields{
				"investmentID": investment.ID,
				"userID":       investment.UserID,
				"error":        err,
			}).Warn("Failed to accrue investment ROI")
			if len(failures) < maxRecordedFailures {
				failures = append(failures, map[string]any{
					"investment_id": investment.ID.String(),
					"error":         err.Error(),
				})
			}
			continue
		}

		run.InvestmentsProcessed++
		run.TotalROIAccrued = run.TotalROIAccrued.Add(result.Accrued)
		metrics.AccrualInvestments.WithLabelValues("processed").Inc()
	}

	run.FinishedAt = w.now()
	run.ExecutionSummary = map[string]any{
		"active_investments": len(investments),
		"failures":           failures,
		"interrupted":        ctx.Err() != nil,
	}

	// An interrupted sweep is still recorded
	if err := w.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		metrics.AccrualSweeps.WithLabelValues("failed").Inc()
		return run, fmt.Errorf("failed to record accrual run: %w", err)
	}

	metrics.AccrualSweeps.WithLabelValues("completed").Inc()
	log.WithFields(log.Fields{
		"runID":     run.ID,
		"processed": run.InvestmentsProcessed,
		"failed":    run.InvestmentsFailed,
		"accrued":   run.TotalROIAccrued.String(),
		"duration":  run.Duration(),
	}).Info("ROI accrual sweep completed")

	return run, nil
}
