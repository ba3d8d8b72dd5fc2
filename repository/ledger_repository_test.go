package repository

import (
	"context"
	"testing"
	"time"

	"cryptoledger/models"
	"cryptoledger/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositRepository_Settle(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewDepositRepository(testDB.DB)
	user := testutil.CreateTestUser(t, testDB.DB, "0")

	deposit := testutil.NewTestDeposit(user.ID, "2.5")
	require.NoError(t, repo.Create(ctx, deposit))
	assert.NotEqual(t, uuid.Nil, deposit.ID)
	assert.False(t, deposit.CreatedAt.IsZero())

	at := time.Now().UTC().Truncate(time.Microsecond)
	txHash := testutil.TxHash

	settled, err := repo.Settle(ctx, deposit.ID, user.ID, models.DepositStatusConfirmed, &txHash, at)
	require.NoError(t, err)
	require.NotNil(t, settled)
	assert.Equal(t, models.DepositStatusConfirmed, settled.Status)
	require.NotNil(t, settled.TxHash)
	assert.Equal(t, txHash, *settled.TxHash)
	require.NotNil(t, settled.ConfirmedAt)
	assert.True(t, at.Equal(*settled.ConfirmedAt))

	t.Run("second settle touches nothing", func(t *testing.T) {
		again, err := repo.Settle(ctx, deposit.ID, user.ID, models.DepositStatusFailed, nil, at)
		require.NoError(t, err)
		assert.Nil(t, again)

		stored, err := repo.GetByIDForUser(ctx, deposit.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DepositStatusConfirmed, stored.Status)
	})

	t.Run("failed keeps confirmed_at empty", func(t *testing.T) {
		pending := testutil.NewTestDeposit(user.ID, "1")
		require.NoError(t, repo.Create(ctx, pending))

		failed, err := repo.Settle(ctx, pending.ID, user.ID, models.DepositStatusFailed, nil, at)
		require.NoError(t, err)
		require.NotNil(t, failed)
		assert.Nil(t, failed.ConfirmedAt)
		assert.Nil(t, failed.TxHash)
	})

	t.Run("scoped to owner", func(t *testing.T) {
		other, err := repo.GetByIDForUser(ctx, deposit.ID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, other)

		list, err := repo.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

func TestWithdrawalRepository_StatusAndDelete(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewWithdrawalRepository(testDB.DB)
	user := testutil.CreateTestUser(t, testDB.DB, "10")

	withdrawal := testutil.NewTestWithdrawal(user.ID, "1")
	require.NoError(t, repo.Create(ctx, withdrawal))

	processedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateStatus(ctx, withdrawal.ID, models.WithdrawalStatusProcessing, nil, &processedAt))

	txHash := testutil.TxHash
	require.NoError(t, repo.UpdateStatus(ctx, withdrawal.ID, models.WithdrawalStatusCompleted, &txHash, nil))

	stored, err := repo.GetByIDForUser(ctx, withdrawal.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.WithdrawalStatusCompleted, stored.Status)
	require.NotNil(t, stored.ProcessedAt, "nil processedAt keeps the stored value")
	assert.True(t, processedAt.Equal(*stored.ProcessedAt))
	require.NotNil(t, stored.TxHash)
	assert.Equal(t, txHash, *stored.TxHash)

	t.Run("delete only while pending", func(t *testing.T) {
		deleted, err := repo.DeletePending(ctx, withdrawal.ID, user.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		pending := testutil.NewTestWithdrawal(user.ID, "2")
		require.NoError(t, repo.Create(ctx, pending))

		deleted, err = repo.DeletePending(ctx, pending.ID, uuid.New())
		require.NoError(t, err)
		assert.False(t, deleted, "other users cannot delete")

		deleted, err = repo.DeletePending(ctx, pending.ID, user.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		gone, err := repo.GetByIDForUser(ctx, pending.ID, user.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("unknown id", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, uuid.New(), models.WithdrawalStatusRejected, nil, nil)
		assert.Error(t, err)
	})
}

func TestInvestmentRepository_ROIAndHistory(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	investments := NewInvestmentRepository(testDB.DB)
	history := NewROIHistoryRepository(testDB.DB)
	user := testutil.CreateTestUser(t, testDB.DB, "0")

	start := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Microsecond)
	older := testutil.NewTestInvestment(user.ID, "10", start)
	newer := testutil.NewTestInvestment(user.ID, "20", start.Add(time.Hour))
	require.NoError(t, investments.Create(ctx, older))
	require.NoError(t, investments.Create(ctx, newer))

	list, err := investments.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest start first")

	watermark := start.Add(24 * time.Hour)
	rate := d("0.0004275")
	require.NoError(t, investments.UpdateROI(ctx, older.ID, rate, watermark))

	stored, err := investments.GetByIDForUser(ctx, older.ID, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.ROIRate.Equal(rate))
	assert.True(t, watermark.Equal(stored.LastROIUpdate))

	active, err := investments.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, newer.ID, active[0].ID, "least recently accrued first")

	for i, amount := range []string{"0", "0.004275", "0.00855"} {
		require.NoError(t, history.Record(ctx, &models.ROIHistory{
			InvestmentID:      older.ID,
			ROIAmount:         d(amount),
			MiningPerformance: older.MiningHashrate,
			RecordedAt:        start.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	entries, err := history.ListByInvestment(ctx, older.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].ROIAmount.Equal(d("0.00855")), "newest first")
	assert.True(t, entries[2].ROIAmount.IsZero())

	other, err := investments.GetByIDForUser(ctx, older.ID, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, other)
}
