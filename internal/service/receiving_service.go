package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/internal/money"
	"erp-backend/internal/numbering"
	"erp-backend/internal/repository"
	"erp-backend/internal/statemachine"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/apperror"
)

type ReceiptLineRequest struct {
	OrderItemID string          `json:"order_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateReceiptRequest opens a goods receipt against a sent purchase order.
// With no explicit lines, every order line's unreceived remainder is received.
type CreateReceiptRequest struct {
	OrderID string               `json:"order_id" binding:"required"`
	Note    string               `json:"note"`
	Items   []ReceiptLineRequest `json:"items" binding:"omitempty,dive"`
}

type ConvertToInvoiceRequest struct {
	DueDate *time.Time `json:"due_date"`
}

type ReceivingService interface {
	CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (*model.GoodsReceipt, error)
	GetReceipt(ctx context.Context, id string) (*model.GoodsReceipt, error)
	ListReceipts(ctx context.Context, status string, page, limit int) ([]model.GoodsReceipt, int64, error)
	// TransitionReceipt confirms or cancels a draft receipt. Confirmation
	// moves stock in and accumulates received quantities on the source order,
	// completing the order once every line is fully received.
	TransitionReceipt(ctx context.Context, userID, id string, req TransitionRequest) (*model.GoodsReceipt, error)
	ConvertReceiptToInvoice(ctx context.Context, userID, id string, req ConvertToInvoiceRequest) (*model.PurchaseInvoice, error)
}

type receivingService struct {
	grRepo     repository.GoodsReceiptRepository
	poRepo     repository.PurchaseOrderRepository
	apInvRepo  repository.PurchaseInvoiceRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	numbers    *numbering.Generator
	stockSvc   StockService
	balanceSvc BalanceService
	notifier   Notifier
}

func NewReceivingService(
	grRepo repository.GoodsReceiptRepository,
	poRepo repository.PurchaseOrderRepository,
	apInvRepo repository.PurchaseInvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers *numbering.Generator,
	stockSvc StockService,
	balanceSvc BalanceService,
	notifier Notifier,
) ReceivingService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &receivingService{
		grRepo:     grRepo,
		poRepo:     poRepo,
		apInvRepo:  apInvRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		numbers:    numbers,
		stockSvc:   stockSvc,
		balanceSvc: balanceSvc,
		notifier:   notifier,
	}
}

func (s *receivingService) publish(event, docType string, h model.DocumentHeader) {
	s.notifier.PublishDocumentEvent(ws.DocumentEvent{
		Event:        event,
		DocumentType: docType,
		DocumentID:   h.ID.String(),
		Number:       h.Number,
		Status:       h.Status,
	})
}

func (s *receivingService) CreateReceipt(ctx context.Context, userID string, req CreateReceiptRequest) (*model.GoodsReceipt, error) {
	orderID, err := parseID(req.OrderID, "order_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var receipt *model.GoodsReceipt
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.poRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return notFound(err, "purchase order")
		}
		if order.Status != model.StatusSent {
			return apperror.Newf(apperror.KindNotEligible,
				"goods can only be received against a sent order, current status is %s", order.Status)
		}
		if order.WarehouseID == nil {
			return apperror.Validation("warehouse_id", "the purchase order has no receiving warehouse")
		}

		orderItems := make(map[uuid.UUID]*model.PurchaseOrderItem, len(order.Items))
		for i := range order.Items {
			orderItems[order.Items[i].ID] = &order.Items[i]
		}

		type plannedLine struct {
			orderItem *model.PurchaseOrderItem
			qty       decimal.Decimal
		}
		var planned []plannedLine
		if len(req.Items) == 0 {
			for i := range order.Items {
				item := &order.Items[i]
				remaining := item.Quantity.Sub(item.ReceivedQuantity)
				if remaining.IsPositive() {
					planned = append(planned, plannedLine{orderItem: item, qty: remaining})
				}
			}
		} else {
			for _, line := range req.Items {
				itemID, err := parseID(line.OrderItemID, "order_item_id")
				if err != nil {
					return err
				}
				item, ok := orderItems[itemID]
				if !ok {
					return apperror.Newf(apperror.KindNotFound,
						"order item %s not found on order %s", line.OrderItemID, order.Number)
				}
				if !line.Quantity.IsPositive() {
					return apperror.Validation("quantity", "must be greater than zero")
				}
				remaining := item.Quantity.Sub(item.ReceivedQuantity)
				if line.Quantity.GreaterThan(remaining) {
					return apperror.Validation("quantity",
						fmt.Sprintf("quantity %s exceeds unreceived remainder %s for %s",
							line.Quantity, remaining, item.ProductName))
				}
				planned = append(planned, plannedLine{orderItem: item, qty: line.Quantity})
			}
		}
		if len(planned) == 0 {
			return apperror.New(apperror.KindNotEligible, "the order has no unreceived quantity left")
		}

		receipt = &model.GoodsReceipt{
			SourceOrderID: &order.ID,
			VendorID:      order.VendorID,
			WarehouseID:   *order.WarehouseID,
		}
		receipt.Status = model.StatusDraft
		receipt.Note = req.Note
		receipt.CreatedBy = actor

		lines := make([]money.Line, 0, len(planned))
		receipt.Items = make([]model.GoodsReceiptItem, 0, len(planned))
		for _, p := range planned {
			line := money.Line{
				Quantity:        p.qty,
				UnitPrice:       p.orderItem.UnitPrice,
				DiscountPercent: p.orderItem.DiscountPercent,
				DiscountAmount:  p.orderItem.DiscountAmount,
				TaxRate:         p.orderItem.TaxRate,
			}
			lines = append(lines, line)
			sourceItemID := p.orderItem.ID
			receipt.Items = append(receipt.Items, model.GoodsReceiptItem{
				LineItem: model.LineItem{
					ProductID:       p.orderItem.ProductID,
					ProductName:     p.orderItem.ProductName,
					Quantity:        p.qty,
					UnitPrice:       p.orderItem.UnitPrice,
					DiscountPercent: p.orderItem.DiscountPercent,
					DiscountAmount:  p.orderItem.DiscountAmount,
					TaxRate:         p.orderItem.TaxRate,
					LineTotal:       money.LineTotal(line),
				},
				SourceOrderItemID: &sourceItemID,
			})
		}
		if err := applyTotals(&receipt.DocumentHeader, lines, order.DiscountPercent, decimal.Zero); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeGoodsReceipt, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		receipt.Number = number

		if err := s.grRepo.Create(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to create goods receipt: %w", err)
		}

		if !order.HasGoodsReceipt {
			order.HasGoodsReceipt = true
			order.UpdatedBy = actor
			order.Items = nil
			if err := s.poRepo.Update(txCtx, order); err != nil {
				return fmt.Errorf("failed to flag order receipt: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeGoodsReceipt, receipt.ID.String(),
			map[string]string{"source": order.Number, "target": receipt.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeGoodsReceipt, receipt.DocumentHeader)
	return receipt, nil
}

func (s *receivingService) GetReceipt(ctx context.Context, id string) (*model.GoodsReceipt, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.grRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "goods receipt")
	}
	return doc, nil
}

func (s *receivingService) ListReceipts(ctx context.Context, status string, page, limit int) ([]model.GoodsReceipt, int64, error) {
	return s.grRepo.List(ctx, status, page, limit)
}

func (s *receivingService) TransitionReceipt(ctx context.Context, userID, id string, req TransitionRequest) (*model.GoodsReceipt, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var receipt *model.GoodsReceipt
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receipt, err = s.grRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "goods receipt")
		}

		machine, err := statemachine.ForDocType(model.DocTypeGoodsReceipt)
		if err != nil {
			return err
		}
		from := receipt.Status
		gc := statemachine.GuardContext{LineCount: len(receipt.Items), HasApprover: actor != nil}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		receipt.Status = req.TargetStatus
		receipt.UpdatedBy = actor
		items := receipt.Items
		receipt.Items = nil
		if err := s.grRepo.Update(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to transition goods receipt: %w", err)
		}
		receipt.Items = items

		if req.TargetStatus == model.StatusConfirmed {
			if err := s.applyReceiptEffects(txCtx, actor, receipt); err != nil {
				return err
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeGoodsReceipt, receipt.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeGoodsReceipt, receipt.DocumentHeader)
	return receipt, nil
}

// applyReceiptEffects moves the received quantities into stock and onto the
// source order, completing the order once fully received. Runs inside the
// confirmation transaction.
func (s *receivingService) applyReceiptEffects(ctx context.Context, actor *uuid.UUID, receipt *model.GoodsReceipt) error {
	for _, item := range receipt.Items {
		if err := s.stockSvc.Receive(ctx, receipt.WarehouseID, item.ProductID, item.Quantity,
			model.DocTypeGoodsReceipt, &receipt.ID, actor); err != nil {
			return err
		}
	}

	if receipt.SourceOrderID == nil {
		return nil
	}

	order, err := s.poRepo.FindByIDForUpdate(ctx, *receipt.SourceOrderID)
	if err != nil {
		return notFound(err, "purchase order")
	}

	orderItems := make(map[uuid.UUID]*model.PurchaseOrderItem, len(order.Items))
	for i := range order.Items {
		orderItems[order.Items[i].ID] = &order.Items[i]
	}
	for _, item := range receipt.Items {
		if item.SourceOrderItemID == nil {
			continue
		}
		orderItem, ok := orderItems[*item.SourceOrderItemID]
		if !ok {
			return apperror.Newf(apperror.KindNotFound,
				"order item %s referenced by receipt line no longer exists", item.SourceOrderItemID)
		}
		received := orderItem.ReceivedQuantity.Add(item.Quantity)
		if received.GreaterThan(orderItem.Quantity) {
			return apperror.Validation("quantity",
				fmt.Sprintf("confirming would over-receive %s: ordered %s, received %s",
					orderItem.ProductName, orderItem.Quantity, received))
		}
		orderItem.ReceivedQuantity = received
		if err := s.poRepo.UpdateItem(ctx, orderItem); err != nil {
			return fmt.Errorf("failed to update received quantity: %w", err)
		}
	}

	if order.Status == model.StatusSent && orderFullyReceived(order) {
		order.Status = model.StatusCompleted
		order.UpdatedBy = actor
		order.Items = nil
		if err := s.poRepo.Update(ctx, order); err != nil {
			return fmt.Errorf("failed to complete purchase order: %w", err)
		}
		return writeAudit(ctx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypePurchaseOrder, order.ID.String(),
			map[string]string{"from": model.StatusSent, "to": model.StatusCompleted})
	}
	return nil
}

func (s *receivingService) ConvertReceiptToInvoice(ctx context.Context, userID, id string, req ConvertToInvoiceRequest) (*model.PurchaseInvoice, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var invoice *model.PurchaseInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		receipt, err := s.grRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "goods receipt")
		}
		if receipt.HasInvoice {
			return apperror.New(apperror.KindAlreadyConverted, "goods receipt already has an invoice")
		}
		if receipt.Status != model.StatusConfirmed {
			return apperror.Newf(apperror.KindNotEligible,
				"only a confirmed receipt can be invoiced, current status is %s", receipt.Status)
		}

		sourceLines := make([]model.LineItem, 0, len(receipt.Items))
		for _, item := range receipt.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		invoice = &model.PurchaseInvoice{
			SourceReceiptID: &receipt.ID,
			VendorID:        receipt.VendorID,
			DueDate:         req.DueDate,
		}
		invoice.CreatedBy = actor
		if err := applyTotals(&invoice.DocumentHeader, lines, receipt.DiscountPercent, receipt.ShippingCost); err != nil {
			return err
		}
		invoice.BalanceAmount = invoice.TotalAmount
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)

		number, err := s.numbers.Next(txCtx, model.DocTypePurchaseInvoice, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		invoice.Number = number

		invoice.Items = make([]model.PurchaseInvoiceItem, 0, len(items))
		for _, item := range items {
			invoice.Items = append(invoice.Items, model.PurchaseInvoiceItem{LineItem: item})
		}
		if err := s.apInvRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create purchase invoice: %w", err)
		}

		if err := s.balanceSvc.AddVendorOutstanding(txCtx, invoice.VendorID, invoice.TotalAmount); err != nil {
			return err
		}

		receipt.HasInvoice = true
		receipt.UpdatedBy = actor
		receipt.Items = nil
		if err := s.grRepo.Update(txCtx, receipt); err != nil {
			return fmt.Errorf("failed to mark receipt invoiced: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypePurchaseInvoice, invoice.ID.String(),
			map[string]string{"source": receipt.Number, "target": invoice.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypePurchaseInvoice, invoice.DocumentHeader)
	return invoice, nil
}
