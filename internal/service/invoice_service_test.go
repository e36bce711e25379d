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

func TestVendorPaymentsSettleInvoice(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)

	first, err := env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("500")})
	require.NoError(t, err)
	assert.Equal(t, vendorID, first.VendorID)

	reloaded, err := env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartiallyPaid, reloaded.Status)
	wantDec(t, "600", reloaded.BalanceAmount)
	wantDec(t, "600", env.vendorOutstanding(t, vendorID))

	_, err = env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("600")})
	require.NoError(t, err)

	reloaded, err = env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, reloaded.Status)
	wantDec(t, "0", reloaded.BalanceAmount)
	wantDec(t, "0", env.vendorOutstanding(t, vendorID))

	payments, err := env.invoices.ListVendorPayments(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestVendorPaymentCannotExceedBalance(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)

	_, err := env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("1200")})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("-5")})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	// Rejected payments leave the ledger untouched.
	reloaded, err := env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	wantDec(t, "1100", reloaded.BalanceAmount)
	wantDec(t, "1100", env.vendorOutstanding(t, vendorID))
}

func TestRemoveVendorPaymentReopensBalance(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)
	payment, err := env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("500")})
	require.NoError(t, err)

	require.NoError(t, env.invoices.RemoveVendorPayment(ctx, actor, payment.ID.String()))

	reloaded, err := env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnpaid, reloaded.Status)
	wantDec(t, "1100", reloaded.BalanceAmount)
	wantDec(t, "1100", env.vendorOutstanding(t, vendorID))

	payments, err := env.invoices.ListVendorPayments(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestDeletePurchaseInvoiceBlockedByPayments(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)
	payment, err := env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("100")})
	require.NoError(t, err)

	err = env.invoices.DeletePurchaseInvoice(ctx, actor, invoice.ID.String())
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	require.NoError(t, env.invoices.RemoveVendorPayment(ctx, actor, payment.ID.String()))
	require.NoError(t, env.invoices.DeletePurchaseInvoice(ctx, actor, invoice.ID.String()))

	// Deleting the invoice closes what was still owed.
	wantDec(t, "0", env.vendorOutstanding(t, vendorID))
	_, err = env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestCustomerPaymentsSettleInvoice(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, customerID := buildSalesInvoice(t, env, actor)
	wantDec(t, "500", invoice.TotalAmount)
	wantDec(t, "500", env.customerOutstanding(t, customerID))

	_, err := env.invoices.AddCustomerPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("200")})
	require.NoError(t, err)

	reloaded, err := env.invoices.GetSalesInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartiallyPaid, reloaded.Status)
	wantDec(t, "300", reloaded.BalanceAmount)
	wantDec(t, "300", env.customerOutstanding(t, customerID))

	_, err = env.invoices.AddCustomerPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("300")})
	require.NoError(t, err)

	reloaded, err = env.invoices.GetSalesInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, reloaded.Status)
	wantDec(t, "0", env.customerOutstanding(t, customerID))
}

func TestRemoveCustomerPaymentReopensBalance(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, customerID := buildSalesInvoice(t, env, actor)
	payment, err := env.invoices.AddCustomerPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("500")})
	require.NoError(t, err)

	reloaded, err := env.invoices.GetSalesInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, reloaded.Status)

	require.NoError(t, env.invoices.RemoveCustomerPayment(ctx, actor, payment.ID.String()))

	reloaded, err = env.invoices.GetSalesInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnpaid, reloaded.Status)
	wantDec(t, "500", reloaded.BalanceAmount)
	wantDec(t, "500", env.customerOutstanding(t, customerID))
}
