package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
)

func TestIssueCannotExceedOnHand(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("5"), "ADJ", nil, nil))

	err := env.stock.Issue(ctx, warehouseID, productID, dec("8"), "ADJ", nil, nil)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	// The rejected issue leaves both the cache and the history alone.
	wantDec(t, "5", env.onHand(t, warehouseID, productID))
	movements, _, err := env.stock.ListMovements(ctx, warehouseID, productID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestIssueRespectsPendingOutflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))
	env.stockRepo.setPending(warehouseID, productID, dec("7"))

	// Only 3 remain uncommitted.
	err := env.stock.Issue(ctx, warehouseID, productID, dec("5"), "ADJ", nil, nil)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	require.NoError(t, env.stock.Issue(ctx, warehouseID, productID, dec("3"), "ADJ", nil, nil))
	wantDec(t, "7", env.onHand(t, warehouseID, productID))
}

func TestAvailableSubtractsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))
	env.stockRepo.setPending(warehouseID, productID, dec("4"))

	avail, err := env.stock.Available(ctx, warehouseID, productID)
	require.NoError(t, err)
	wantDec(t, "10", avail.OnHand)
	wantDec(t, "4", avail.Pending)
	wantDec(t, "6", avail.Available)
}

func TestZeroQuantityMoveRejected(t *testing.T) {
	env := newTestEnv(t)
	warehouseID, productID := uuid.New(), uuid.New()

	err := env.stock.Receive(context.Background(), warehouseID, productID, dec("0"), "ADJ", nil, nil)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestMovementHistoryCarriesRunningQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))
	require.NoError(t, env.stock.Issue(ctx, warehouseID, productID, dec("4"), "ADJ", nil, nil))
	require.NoError(t, env.stock.ReturnIn(ctx, warehouseID, productID, dec("1"), "ADJ", nil, nil))

	movements, _, err := env.stock.ListMovements(ctx, warehouseID, productID, 1, 10)
	require.NoError(t, err)
	require.Len(t, movements, 3)
	assert.Equal(t, model.MovementReceipt, movements[0].MovementType)
	wantDec(t, "10", movements[0].QuantityAfter)
	assert.Equal(t, model.MovementIssue, movements[1].MovementType)
	wantDec(t, "-4", movements[1].Quantity)
	wantDec(t, "6", movements[1].QuantityAfter)
	assert.Equal(t, model.MovementReturn, movements[2].MovementType)
	wantDec(t, "7", movements[2].QuantityAfter)

	wantDec(t, "7", env.onHand(t, warehouseID, productID))
}

func TestRecomputeReportsDivergence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))
	env.stockRepo.setQuantity(warehouseID, productID, dec("12"))

	result, err := env.stock.Recompute(ctx, warehouseID, productID, "", false)
	assert.Equal(t, apperror.KindIntegrityMismatch, apperror.KindOf(err))
	require.NotNil(t, result)
	assert.True(t, result.Mismatch)
	assert.False(t, result.Repaired)
	wantDec(t, "12", result.Cached)
	wantDec(t, "10", result.Computed)

	// Without repair the cache keeps its corrupted value.
	wantDec(t, "12", env.onHand(t, warehouseID, productID))
	assert.Contains(t, env.auditRepo.actions(), model.ActionIntegrityMismatch)
}

func TestRecomputeRepairsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))
	env.stockRepo.setQuantity(warehouseID, productID, dec("12"))

	result, err := env.stock.Recompute(ctx, warehouseID, productID, "", true)
	require.NoError(t, err)
	assert.True(t, result.Mismatch)
	assert.True(t, result.Repaired)

	wantDec(t, "10", env.onHand(t, warehouseID, productID))
	assert.Contains(t, env.auditRepo.actions(), model.ActionRecomputeStock)
}

func TestRecomputeCleanCacheIsQuiet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID, productID := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, productID, dec("10"), "ADJ", nil, nil))

	result, err := env.stock.Recompute(ctx, warehouseID, productID, "", false)
	require.NoError(t, err)
	assert.False(t, result.Mismatch)
	assert.Empty(t, env.auditRepo.actions())
}

func TestRecomputeAllSweepsEveryRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	warehouseID := uuid.New()
	clean, dirty := uuid.New(), uuid.New()

	require.NoError(t, env.stock.Receive(ctx, warehouseID, clean, dec("5"), "ADJ", nil, nil))
	require.NoError(t, env.stock.Receive(ctx, warehouseID, dirty, dec("5"), "ADJ", nil, nil))
	env.stockRepo.setQuantity(warehouseID, dirty, dec("9"))

	results, err := env.stock.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, dirty.String(), results[0].ProductID)
	assert.True(t, results[0].Repaired)

	wantDec(t, "5", env.onHand(t, warehouseID, dirty))
}
