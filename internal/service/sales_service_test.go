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

// buildConfirmedOrder creates an approved quotation for qty 10 at 50 (no tax)
// and converts it into a confirmed sales order shipping from a fresh
// warehouse: total 500.
func buildConfirmedOrder(t *testing.T, env *testEnv, actor string) (*model.SalesOrder, uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	customerID := uuid.New()
	warehouseID := uuid.New()
	product := env.addProduct(t, "SKU-"+uuid.NewString()[:8], "50")

	quote, err := env.sales.CreateQuotation(ctx, actor, CreateSalesQuotationRequest{
		CustomerID: customerID.String(),
		Items:      []LineItemRequest{{ProductID: product.ID.String(), Quantity: dec("10")}},
	})
	require.NoError(t, err)
	for _, target := range []string{model.StatusSubmitted, model.StatusApproved} {
		_, err = env.sales.TransitionQuotation(ctx, actor, quote.ID.String(),
			TransitionRequest{TargetStatus: target})
		require.NoError(t, err)
	}

	order, err := env.sales.ConvertQuotationToOrder(ctx, actor, quote.ID.String(),
		ConvertToSalesOrderRequest{WarehouseID: warehouseID.String()})
	require.NoError(t, err)
	_, err = env.sales.TransitionOrder(ctx, actor, order.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	order, err = env.sales.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	return order, customerID, warehouseID
}

// seedStock puts quantity on hand through a receipt movement, the same path a
// confirmed goods receipt takes.
func seedStock(t *testing.T, env *testEnv, warehouseID, productID uuid.UUID, qty string) {
	t.Helper()
	err := env.stock.Receive(context.Background(), warehouseID, productID, dec(qty), "ADJ", nil, nil)
	require.NoError(t, err)
}

// buildSalesInvoice ships the confirmed order in full and converts the
// delivery into an AR invoice over 500.
func buildSalesInvoice(t *testing.T, env *testEnv, actor string) (*model.SalesInvoice, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	order, customerID, warehouseID := buildConfirmedOrder(t, env, actor)
	seedStock(t, env, warehouseID, order.Items[0].ProductID, "10")

	delivery, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	_, err = env.sales.TransitionDelivery(ctx, actor, delivery.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	invoice, err := env.sales.ConvertDeliveryToInvoice(ctx, actor, delivery.ID.String(), ConvertToInvoiceRequest{})
	require.NoError(t, err)
	return invoice, customerID
}

func TestQuotationToOrderConversion(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()

	order, customerID, warehouseID := buildConfirmedOrder(t, env, actor)

	assert.True(t, strings.HasPrefix(order.Number, "SO-"), "number %q", order.Number)
	assert.Equal(t, model.StatusConfirmed, order.Status)
	assert.Equal(t, customerID, order.CustomerID)
	require.NotNil(t, order.WarehouseID)
	assert.Equal(t, warehouseID, *order.WarehouseID)
	require.Len(t, order.Items, 1)
	wantDec(t, "500", order.TotalAmount)
	wantDec(t, "0", order.Items[0].DeliveredQuantity)

	// Every step along the chain went out on the document feed.
	names := env.events.names()
	assert.Contains(t, names, "created")
	assert.Contains(t, names, "converted")
	assert.Contains(t, names, "transitioned")
}

func TestConvertQuotationToOrderOnlyOnceSales(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, _ := buildConfirmedOrder(t, env, actor)
	require.NotNil(t, order.SourceQuotationID)

	_, err := env.sales.ConvertQuotationToOrder(ctx, actor, order.SourceQuotationID.String(),
		ConvertToSalesOrderRequest{})
	assert.Equal(t, apperror.KindAlreadyConverted, apperror.KindOf(err))
}

func TestConvertUnapprovedQuotationRejected(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()
	product := env.addProduct(t, "SKU-DRAFTQ", "10")

	quote, err := env.sales.CreateQuotation(ctx, actor, CreateSalesQuotationRequest{
		CustomerID: uuid.NewString(),
		Items:      []LineItemRequest{{ProductID: product.ID.String(), Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = env.sales.ConvertQuotationToOrder(ctx, actor, quote.ID.String(), ConvertToSalesOrderRequest{})
	assert.Equal(t, apperror.KindNotEligible, apperror.KindOf(err))
}

func TestPartialDeliveryAccumulates(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, warehouseID := buildConfirmedOrder(t, env, actor)
	productID := order.Items[0].ProductID
	seedStock(t, env, warehouseID, productID, "10")

	first, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{
		OrderID: order.ID.String(),
		Items: []DeliveryLineRequest{{
			OrderItemID: order.Items[0].ID.String(),
			Quantity:    dec("4"),
		}},
	})
	require.NoError(t, err)
	_, err = env.sales.TransitionDelivery(ctx, actor, first.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	wantDec(t, "6", env.onHand(t, warehouseID, productID))
	order, err = env.sales.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, order.Status)
	wantDec(t, "4", order.Items[0].DeliveredQuantity)

	// The default second delivery picks up the remainder and closes the order.
	second, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	wantDec(t, "6", second.Items[0].Quantity)
	_, err = env.sales.TransitionDelivery(ctx, actor, second.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	wantDec(t, "0", env.onHand(t, warehouseID, productID))
	order, err = env.sales.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, order.Status)
	wantDec(t, "10", order.Items[0].DeliveredQuantity)
}

func TestDeliveryQuantityCappedByOrder(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, _ := buildConfirmedOrder(t, env, actor)

	_, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{
		OrderID: order.ID.String(),
		Items: []DeliveryLineRequest{{
			OrderItemID: order.Items[0].ID.String(),
			Quantity:    dec("11"),
		}},
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestFullyDeliveredOrderHasNothingLeft(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, warehouseID := buildConfirmedOrder(t, env, actor)
	seedStock(t, env, warehouseID, order.Items[0].ProductID, "10")

	delivery, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{OrderID: order.ID.String()})
	require.NoError(t, err)
	_, err = env.sales.TransitionDelivery(ctx, actor, delivery.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	require.NoError(t, err)

	// The order moved to delivered, so another delivery is blocked on status.
	_, err = env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{OrderID: order.ID.String()})
	assert.Equal(t, apperror.KindNotEligible, apperror.KindOf(err))
}

func TestDeliveryConfirmationNeedsStock(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, warehouseID := buildConfirmedOrder(t, env, actor)
	productID := order.Items[0].ProductID
	seedStock(t, env, warehouseID, productID, "3")

	delivery, err := env.sales.CreateDelivery(ctx, actor, CreateDeliveryRequest{OrderID: order.ID.String()})
	require.NoError(t, err)

	_, err = env.sales.TransitionDelivery(ctx, actor, delivery.ID.String(),
		TransitionRequest{TargetStatus: model.StatusConfirmed})
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	// The on-hand quantity is untouched by the rejected outflow.
	wantDec(t, "3", env.onHand(t, warehouseID, productID))
}

func TestConvertDeliveryToInvoice(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()

	invoice, customerID := buildSalesInvoice(t, env, actor)

	assert.True(t, strings.HasPrefix(invoice.Number, "ARI-"), "number %q", invoice.Number)
	assert.Equal(t, model.StatusUnpaid, invoice.Status)
	assert.Equal(t, customerID, invoice.CustomerID)
	wantDec(t, "500", invoice.TotalAmount)
	wantDec(t, "500", invoice.BalanceAmount)
	wantDec(t, "500", env.customerOutstanding(t, customerID))
}

func TestConvertDeliveryToInvoiceOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	invoice, _ := buildSalesInvoice(t, env, actor)
	require.NotNil(t, invoice.SourceDeliveryID)

	_, err := env.sales.ConvertDeliveryToInvoice(ctx, actor, invoice.SourceDeliveryID.String(),
		ConvertToInvoiceRequest{})
	assert.Equal(t, apperror.KindAlreadyConverted, apperror.KindOf(err))
}

func TestStandaloneGoodIssue(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()
	warehouseID := uuid.New()
	product := env.addProduct(t, "SKU-GI", "12")
	seedStock(t, env, warehouseID, product.ID, "5")

	issue, err := env.sales.CreateGoodIssue(ctx, actor, CreateGoodIssueRequest{
		WarehouseID: warehouseID.String(),
		Reason:      "internal consumption",
		Items:       []LineItemRequest{{ProductID: product.ID.String(), Quantity: dec("2")}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(issue.Number, "GI-"), "number %q", issue.Number)
	assert.Equal(t, model.StatusDraft, issue.Status)

	_, err = env.sales.TransitionGoodIssue(ctx, actor, issue.ID.String(),
		TransitionRequest{TargetStatus: model.StatusExecuted})
	require.NoError(t, err)

	wantDec(t, "3", env.onHand(t, warehouseID, product.ID))
}

func TestGoodIssueRequiresWarehouse(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	product := env.addProduct(t, "SKU-GI2", "12")

	_, err := env.sales.CreateGoodIssue(context.Background(), actor, CreateGoodIssueRequest{
		Items: []LineItemRequest{{ProductID: product.ID.String(), Quantity: dec("1")}},
	})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestGoodIssueAgainstOrderUsesItsWarehouse(t *testing.T) {
	env := newTestEnv(t)
	actor := uuid.NewString()
	ctx := context.Background()

	order, _, warehouseID := buildConfirmedOrder(t, env, actor)
	productID := order.Items[0].ProductID
	seedStock(t, env, warehouseID, productID, "10")

	issue, err := env.sales.CreateGoodIssue(ctx, actor, CreateGoodIssueRequest{
		OrderID: order.ID.String(),
		Reason:  "sample shipment",
		Items:   []LineItemRequest{{ProductID: productID.String(), Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, warehouseID, issue.WarehouseID)

	order, err = env.sales.GetOrder(ctx, order.ID.String())
	require.NoError(t, err)
	assert.True(t, order.HasGoodIssue)
}
