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

func TestOutstandingDeltasAccumulate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendorID := uuid.New()

	require.NoError(t, env.balance.AddVendorOutstanding(ctx, vendorID, dec("1100")))
	require.NoError(t, env.balance.AddVendorOutstanding(ctx, vendorID, dec("-500")))

	b, err := env.balance.GetVendor(ctx, vendorID)
	require.NoError(t, err)
	wantDec(t, "600", b.OutstandingBalance)

	// The cache agrees with the ledger, so a recompute is a no-op.
	env.balanceRepo.setVendorLedger(vendorID, dec("600"))
	result, err := env.balance.RecomputeVendor(ctx, vendorID, "", false)
	require.NoError(t, err)
	assert.False(t, result.Mismatch)
}

func TestUnknownPartnerBalanceNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.balance.GetCustomer(context.Background(), uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRecomputeCustomerReportsDivergence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customerID := uuid.New()

	require.NoError(t, env.balance.AddCustomerOutstanding(ctx, customerID, dec("500")))
	env.balanceRepo.setCustomerLedger(customerID, dec("300"))

	result, err := env.balance.RecomputeCustomer(ctx, customerID, "", false)
	assert.Equal(t, apperror.KindIntegrityMismatch, apperror.KindOf(err))
	require.NotNil(t, result)
	assert.Equal(t, "customer", result.Side)
	assert.True(t, result.Mismatch)
	assert.False(t, result.Repaired)
	wantDec(t, "500", result.Cached)
	wantDec(t, "300", result.Computed)

	// Without repair the cache keeps its value.
	b, err := env.balance.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	wantDec(t, "500", b.OutstandingBalance)
	assert.Contains(t, env.auditRepo.actions(), model.ActionIntegrityMismatch)
}

func TestRecomputeVendorRepairsCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendorID := uuid.New()

	require.NoError(t, env.balance.AddVendorOutstanding(ctx, vendorID, dec("1100")))
	env.balanceRepo.setVendorLedger(vendorID, dec("900"))

	result, err := env.balance.RecomputeVendor(ctx, vendorID, "", true)
	require.NoError(t, err)
	assert.True(t, result.Mismatch)
	assert.True(t, result.Repaired)

	b, err := env.balance.GetVendor(ctx, vendorID)
	require.NoError(t, err)
	wantDec(t, "900", b.OutstandingBalance)
	assert.Contains(t, env.auditRepo.actions(), model.ActionRecomputeBalance)
}

func TestRecomputeAllSweepsBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customerID, vendorID := uuid.New(), uuid.New()

	require.NoError(t, env.balance.AddCustomerOutstanding(ctx, customerID, dec("500")))
	require.NoError(t, env.balance.AddVendorOutstanding(ctx, vendorID, dec("1100")))
	env.balanceRepo.setCustomerLedger(customerID, dec("200"))
	env.balanceRepo.setVendorLedger(vendorID, dec("1100"))

	results, err := env.balance.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "customer", results[0].Side)
	assert.True(t, results[0].Repaired)

	b, err := env.balance.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	wantDec(t, "200", b.OutstandingBalance)
}
