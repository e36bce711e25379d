package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
)

// buildPurchaseInvoice receives the full sent order and converts the
// confirmed receipt into an AP invoice over 1100.
func buildPurchaseInvoice(t *testing.T, env *testEnv, actor string) (*model.PurchaseInvoice, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	order, vendorID, _ := buildSentOrder(t, env, actor)

	receipt, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	_, err = env.receiving.TransitionReceipt(ctx, actor, receipt.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	invoice, err := env.receiving.ConvertReceiptToInvoice(ctx, actor, receipt.ID.String(), ConvertToInvoiceRequest{})
	require.NoError(t, err)
	return invoice, vendorID
}

func TestReceiveAgainstSentOrder(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, vendorID, warehouseID := buildSentOrder(t, env, actor)
	productID := order.Items[0].ProductID

	receipt, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(receipt.Number, "GR-"), "number %q", receipt.Number)
	assert.Equal(t, model.StatusDraft, receipt.Status)
	assert.Equal(t, vendorID, receipt.VendorID)
	assert.Equal(t, warehouseID, receipt.WarehouseID)
	require.Len(t, receipt.Items, 1)
	wantDec(t, "10", receipt.Items[0].Quantity)

	// No stock moves until the receipt is confirmed.
	wantDec(t, "0", env.onHand(t, warehouseID, productID))

	_, err = env.receiving.TransitionReceipt(ctx, actor, receipt.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	wantDec(t, "10", env.onHand(t, warehouseID, productID))

	// Fully received orders complete on their own.
	order, err = env.procurement.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, order.Status)
	wantDec(t, "10", order.Items[0].ReceivedQuantity)
}

func TestCreateReceiptRequiresSentOrder(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	req := createRequisition(t, env, actor)
	approveRequisition(t, env, actor, req.ID.String())
	rfq, err := env.procurement.ConvertRequisitionToRFQ(ctx, actor, req.ID.String(),
		ConvertToRFQRequest{VendorID: uuid.NewString()})
	require.NoError(t, err)
	for _, target := range []string{model.StatusIssued, model.StatusQuoted} {
		_, err = env.procurement.TransitionRFQ(ctx, actor, rfq.ID.String(), TransitionRequest{TargetStatus: target})
		require.NoError(t, err)
	}
	pq, err := env.procurement.ConvertRFQToQuotation(ctx, actor, rfq.ID.String(), ConvertToQuotationRequest{})
	require.NoError(t, err)
	for _, target := range []string{model.StatusSubmitted, model.StatusApproved, model.StatusSelected} {
		_, err = env.procurement.TransitionQuotation(ctx, actor, pq.ID.String(), TransitionRequest{TargetStatus: target})
		require.NoError(t, err)
	}
	order, err := env.procurement.ConvertQuotationToOrder(ctx, actor, pq.ID.String(),
		ConvertToOrderRequest{WarehouseID: uuid.NewString()})
	require.NoError(t, err)

	// The order is still a draft.
	_, err = env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	assert.Equal(t, apperror.KindNotEligible, apperror.KindOf(err))
}

func TestPartialReceiptKeepsOrderOpen(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, warehouseID := buildSentOrder(t, env, actor)
	productID := order.Items[0].ProductID

	receipt, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{
		OrderID: order.ID.String(),
		Items: []ReceiptLineRequest{{
			OrderItemID: order.Items[0].ID.String(),
			Quantity:    dec("4"),
		}},
	})
	require.NoError(t, err)
	_, err = env.receiving.TransitionReceipt(ctx, actor, receipt.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	wantDec(t, "4", env.onHand(t, warehouseID, productID))

	order, err = env.procurement.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSent, order.Status)
	wantDec(t, "4", order.Items[0].ReceivedQuantity)

	// Closing with unreceived quantity needs the explicit override.
	_, err = env.procurement.TransitionOrder(ctx, actor, order.ID.String(),
		TransitionRequest{TargetStatus: model.StatusCompleted})
	assert.Equal(t, apperror.KindGuardFailed, apperror.KindOf(err))

	_, err = env.procurement.TransitionOrder(ctx, actor, order.ID.String(),
		TransitionRequest{TargetStatus: model.StatusCompleted, PartialCompletion: true})
	require.NoError(t, err)
}

func TestReceiptQuantityCappedByOrder(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, _ := buildSentOrder(t, env, actor)

	_, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{
		OrderID: order.ID.String(),
		Items: []ReceiptLineRequest{{
			OrderItemID: order.Items[0].ID.String(),
			Quantity:    dec("11"),
		}},
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestFullyReceivedOrderHasNothingLeft(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, _ := buildSentOrder(t, env, actor)
	receipt, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	_, err = env.receiving.TransitionReceipt(ctx, actor, receipt.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	// The order auto-completed, so a second receipt is blocked on status.
	_, err = env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	assert.Equal(t, apperror.KindNotEligible, apperror.KindOf(err))
}

func TestConvertReceiptToInvoice(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)

	assert.True(t, strings.HasPrefix(invoice.Number, "API-"), "number %q", invoice.Number)
	assert.Equal(t, model.StatusUnpaid, invoice.Status)
	assert.Equal(t, vendorID, invoice.VendorID)
	wantDec(t, "1000", invoice.Subtotal)
	wantDec(t, "100", invoice.TaxAmount)
	wantDec(t, "1100", invoice.TotalAmount)
	wantDec(t, "1100", invoice.BalanceAmount)

	// Issuing the invoice opens the payable.
	wantDec(t, "1100", env.vendorOutstanding(t, vendorID))
}

func TestConvertReceiptToInvoiceOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, _ := buildPurchaseInvoice(t, env, actor)
	require.NotNil(t, invoice.SourceReceiptID)

	_, err := env.receiving.ConvertReceiptToInvoice(ctx, actor, invoice.SourceReceiptID.String(),
		ConvertToInvoiceRequest{})
	assert.Equal(t, apperror.KindAlreadyConverted, apperror.KindOf(err))
}

func TestUnconfirmedReceiptCannotBeInvoiced(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, _ := buildSentOrder(t, env, actor)
	receipt, err := env.receiving.CreateReceipt(ctx, actor, CreateReceiptRequest{OrderID: order.ID.String()})
	require.NoError(t, err)

	_, err = env.receiving.ConvertReceiptToInvoice(ctx, actor, receipt.ID.String(), ConvertToInvoiceRequest{})
	assert.Equal(t, apperror.KindNotEligible, apperror.KindOf(err))
}

// TestProcureToPayScenario walks the whole chain end to end: requisition
// through payment, checking the money at each ledger touchpoint.
func TestProcureToPayScenario(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, vendorID := buildPurchaseInvoice(t, env, actor)
	wantDec(t, "1100", env.vendorOutstanding(t, vendorID))

	payment, err := env.invoices.AddVendorPayment(ctx, actor, invoice.ID.String(),
		PaymentRequest{Amount: dec("500"), Method: "bank_transfer"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payment.Number, "PAY-"), "number %q", payment.Number)

	invoice2, err := env.invoices.GetPurchaseInvoice(ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartiallyPaid, invoice2.Status)
	wantDec(t, "600", invoice2.BalanceAmount)
	wantDec(t, "600", env.vendorOutstanding(t, vendorID))
}
