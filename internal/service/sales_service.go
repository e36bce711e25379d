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

type CreateSalesQuotationRequest struct {
	CustomerID      string            `json:"customer_id" binding:"required"`
	ValidUntil      *time.Time        `json:"valid_until"`
	Note            string            `json:"note"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	ShippingCost    decimal.Decimal   `json:"shipping_cost"`
	Items           []LineItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ConvertToSalesOrderRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

type DeliveryLineRequest struct {
	OrderItemID string          `json:"order_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateDeliveryRequest opens a delivery against a confirmed sales order.
// With no explicit lines, every order line's undelivered remainder ships.
type CreateDeliveryRequest struct {
	OrderID string                `json:"order_id" binding:"required"`
	Note    string                `json:"note"`
	Items   []DeliveryLineRequest `json:"items" binding:"omitempty,dive"`
}

// CreateGoodIssueRequest takes stock out without a delivery, either against a
// sales order or standalone for internal consumption.
type CreateGoodIssueRequest struct {
	OrderID     string            `json:"order_id"`
	WarehouseID string            `json:"warehouse_id"`
	Reason      string            `json:"reason"`
	Note        string            `json:"note"`
	Items       []LineItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SalesService interface {
	CreateQuotation(ctx context.Context, userID string, req CreateSalesQuotationRequest) (*model.SalesQuotation, error)
	GetQuotation(ctx context.Context, id string) (*model.SalesQuotation, error)
	ListQuotations(ctx context.Context, status string, page, limit int) ([]model.SalesQuotation, int64, error)
	TransitionQuotation(ctx context.Context, userID, id string, req TransitionRequest) (*model.SalesQuotation, error)
	DeleteQuotation(ctx context.Context, userID, id string) error
	ConvertQuotationToOrder(ctx context.Context, userID, id string, req ConvertToSalesOrderRequest) (*model.SalesOrder, error)

	GetOrder(ctx context.Context, id string) (*model.SalesOrder, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]model.SalesOrder, int64, error)
	TransitionOrder(ctx context.Context, userID, id string, req TransitionRequest) (*model.SalesOrder, error)
	DeleteOrder(ctx context.Context, userID, id string) error

	CreateDelivery(ctx context.Context, userID string, req CreateDeliveryRequest) (*model.Delivery, error)
	GetDelivery(ctx context.Context, id string) (*model.Delivery, error)
	ListDeliveries(ctx context.Context, status string, page, limit int) ([]model.Delivery, int64, error)
	// TransitionDelivery confirms or cancels a draft delivery. Confirmation
	// issues stock and accumulates delivered quantities on the source order,
	// marking the order delivered once every line has shipped in full.
	TransitionDelivery(ctx context.Context, userID, id string, req TransitionRequest) (*model.Delivery, error)
	ConvertDeliveryToInvoice(ctx context.Context, userID, id string, req ConvertToInvoiceRequest) (*model.SalesInvoice, error)

	CreateGoodIssue(ctx context.Context, userID string, req CreateGoodIssueRequest) (*model.GoodIssue, error)
	GetGoodIssue(ctx context.Context, id string) (*model.GoodIssue, error)
	ListGoodIssues(ctx context.Context, status string, page, limit int) ([]model.GoodIssue, int64, error)
	// TransitionGoodIssue executes or cancels a draft good issue. Execution
	// issues the stock.
	TransitionGoodIssue(ctx context.Context, userID, id string, req TransitionRequest) (*model.GoodIssue, error)
}

type salesService struct {
	sqRepo      repository.SalesQuotationRepository
	soRepo      repository.SalesOrderRepository
	deliRepo    repository.DeliveryRepository
	giRepo      repository.GoodIssueRepository
	arInvRepo   repository.SalesInvoiceRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	numbers     *numbering.Generator
	stockSvc    StockService
	balanceSvc  BalanceService
	notifier    Notifier
}

func NewSalesService(
	sqRepo repository.SalesQuotationRepository,
	soRepo repository.SalesOrderRepository,
	deliRepo repository.DeliveryRepository,
	giRepo repository.GoodIssueRepository,
	arInvRepo repository.SalesInvoiceRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers *numbering.Generator,
	stockSvc StockService,
	balanceSvc BalanceService,
	notifier Notifier,
) SalesService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &salesService{
		sqRepo:      sqRepo,
		soRepo:      soRepo,
		deliRepo:    deliRepo,
		giRepo:      giRepo,
		arInvRepo:   arInvRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		numbers:     numbers,
		stockSvc:    stockSvc,
		balanceSvc:  balanceSvc,
		notifier:    notifier,
	}
}

func (s *salesService) publish(event, docType string, h model.DocumentHeader) {
	s.notifier.PublishDocumentEvent(ws.DocumentEvent{
		Event:        event,
		DocumentType: docType,
		DocumentID:   h.ID.String(),
		Number:       h.Number,
		Status:       h.Status,
	})
}

func (s *salesService) CreateQuotation(ctx context.Context, userID string, req CreateSalesQuotationRequest) (*model.SalesQuotation, error) {
	customerID, err := parseID(req.CustomerID, "customer_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	doc := &model.SalesQuotation{
		CustomerID: customerID,
		ValidUntil: req.ValidUntil,
	}
	doc.Note = req.Note
	doc.Status = model.StatusDraft
	doc.CreatedBy = actor

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		items, lines, err := resolveLines(txCtx, s.productRepo, req.Items)
		if err != nil {
			return err
		}
		if err := applyTotals(&doc.DocumentHeader, lines, req.DiscountPercent, req.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeSalesQuotation, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		doc.Number = number

		doc.Items = make([]model.SalesQuotationItem, 0, len(items))
		for _, item := range items {
			doc.Items = append(doc.Items, model.SalesQuotationItem{LineItem: item})
		}
		if err := s.sqRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create sales quotation: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDocument,
			model.DocTypeSalesQuotation, doc.ID.String(), req)
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeSalesQuotation, doc.DocumentHeader)
	return doc, nil
}

func (s *salesService) GetQuotation(ctx context.Context, id string) (*model.SalesQuotation, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.sqRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "sales quotation")
	}
	return doc, nil
}

func (s *salesService) ListQuotations(ctx context.Context, status string, page, limit int) ([]model.SalesQuotation, int64, error) {
	return s.sqRepo.List(ctx, status, page, limit)
}

func (s *salesService) TransitionQuotation(ctx context.Context, userID, id string, req TransitionRequest) (*model.SalesQuotation, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.SalesQuotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.sqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales quotation")
		}

		machine, err := statemachine.ForDocType(model.DocTypeSalesQuotation)
		if err != nil {
			return err
		}
		from := doc.Status
		gc := statemachine.GuardContext{LineCount: len(doc.Items), HasApprover: actor != nil, HasPurpose: true}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		doc.Status = req.TargetStatus
		doc.UpdatedBy = actor
		if err := s.sqRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition sales quotation: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeSalesQuotation, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeSalesQuotation, doc.DocumentHeader)
	return doc, nil
}

func (s *salesService) DeleteQuotation(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.sqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales quotation")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft quotations can be deleted, current status is %s", doc.Status)
		}
		if err := s.sqRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete sales quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeSalesQuotation, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *salesService) ConvertQuotationToOrder(ctx context.Context, userID, id string, req ConvertToSalesOrderRequest) (*model.SalesOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var warehouseID *uuid.UUID
	if req.WarehouseID != "" {
		parsed, err := parseID(req.WarehouseID, "warehouse_id")
		if err != nil {
			return nil, err
		}
		warehouseID = &parsed
	}

	var order *model.SalesOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		source, err := s.sqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales quotation")
		}
		if source.HasSalesOrder {
			return apperror.New(apperror.KindAlreadyConverted, "quotation already has a sales order")
		}
		if source.Status != model.StatusApproved {
			return apperror.Newf(apperror.KindNotEligible,
				"quotation must be approved before conversion, current status is %s", source.Status)
		}

		sourceLines := make([]model.LineItem, 0, len(source.Items))
		for _, item := range source.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		order = &model.SalesOrder{
			SourceQuotationID: &source.ID,
			CustomerID:        source.CustomerID,
			WarehouseID:       warehouseID,
		}
		order.Status = model.StatusDraft
		order.CreatedBy = actor
		if err := applyTotals(&order.DocumentHeader, lines, source.DiscountPercent, source.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeSalesOrder, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		order.Number = number

		order.Items = make([]model.SalesOrderItem, 0, len(items))
		for _, item := range items {
			order.Items = append(order.Items, model.SalesOrderItem{
				LineItem:          item,
				DeliveredQuantity: decimal.Zero,
			})
		}
		if err := s.soRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create sales order: %w", err)
		}

		source.HasSalesOrder = true
		source.UpdatedBy = actor
		source.Items = nil
		if err := s.sqRepo.Update(txCtx, source); err != nil {
			return fmt.Errorf("failed to mark quotation converted: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeSalesOrder, order.ID.String(),
			map[string]string{"source": source.Number, "target": order.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypeSalesOrder, order.DocumentHeader)
	return order, nil
}

func (s *salesService) GetOrder(ctx context.Context, id string) (*model.SalesOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.soRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "sales order")
	}
	return doc, nil
}

func (s *salesService) ListOrders(ctx context.Context, status string, page, limit int) ([]model.SalesOrder, int64, error) {
	return s.soRepo.List(ctx, status, page, limit)
}

func (s *salesService) TransitionOrder(ctx context.Context, userID, id string, req TransitionRequest) (*model.SalesOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.SalesOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.soRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales order")
		}

		machine, err := statemachine.ForDocType(model.DocTypeSalesOrder)
		if err != nil {
			return err
		}
		from := doc.Status
		gc := statemachine.GuardContext{LineCount: len(doc.Items), HasApprover: actor != nil}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		doc.Status = req.TargetStatus
		doc.UpdatedBy = actor
		if err := s.soRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition sales order: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeSalesOrder, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeSalesOrder, doc.DocumentHeader)
	return doc, nil
}

func (s *salesService) DeleteOrder(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.soRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales order")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft sales orders can be deleted, current status is %s", doc.Status)
		}
		if err := s.soRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete sales order: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeSalesOrder, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *salesService) CreateDelivery(ctx context.Context, userID string, req CreateDeliveryRequest) (*model.Delivery, error) {
	orderID, err := parseID(req.OrderID, "order_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var delivery *model.Delivery
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.soRepo.FindByIDForUpdate(txCtx, orderID)
		if err != nil {
			return notFound(err, "sales order")
		}
		if order.Status != model.StatusConfirmed {
			return apperror.Newf(apperror.KindNotEligible,
				"deliveries require a confirmed order, current status is %s", order.Status)
		}
		if order.WarehouseID == nil {
			return apperror.Validation("warehouse_id", "the sales order has no shipping warehouse")
		}

		orderItems := make(map[uuid.UUID]*model.SalesOrderItem, len(order.Items))
		for i := range order.Items {
			orderItems[order.Items[i].ID] = &order.Items[i]
		}

		type plannedLine struct {
			orderItem *model.SalesOrderItem
			qty       decimal.Decimal
		}
		var planned []plannedLine
		if len(req.Items) == 0 {
			for i := range order.Items {
				item := &order.Items[i]
				remaining := item.Quantity.Sub(item.DeliveredQuantity)
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
				remaining := item.Quantity.Sub(item.DeliveredQuantity)
				if line.Quantity.GreaterThan(remaining) {
					return apperror.Validation("quantity",
						fmt.Sprintf("quantity %s exceeds undelivered remainder %s for %s",
							line.Quantity, remaining, item.ProductName))
				}
				planned = append(planned, plannedLine{orderItem: item, qty: line.Quantity})
			}
		}
		if len(planned) == 0 {
			return apperror.New(apperror.KindNotEligible, "the order has no undelivered quantity left")
		}

		delivery = &model.Delivery{
			SourceOrderID: &order.ID,
			CustomerID:    order.CustomerID,
			WarehouseID:   *order.WarehouseID,
		}
		delivery.Status = model.StatusDraft
		delivery.Note = req.Note
		delivery.CreatedBy = actor

		lines := make([]money.Line, 0, len(planned))
		delivery.Items = make([]model.DeliveryItem, 0, len(planned))
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
			delivery.Items = append(delivery.Items, model.DeliveryItem{
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
		if err := applyTotals(&delivery.DocumentHeader, lines, order.DiscountPercent, order.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeDelivery, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		delivery.Number = number

		if err := s.deliRepo.Create(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}

		if !order.HasDelivery {
			order.HasDelivery = true
			order.UpdatedBy = actor
			order.Items = nil
			if err := s.soRepo.Update(txCtx, order); err != nil {
				return fmt.Errorf("failed to flag order delivery: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeDelivery, delivery.ID.String(),
			map[string]string{"source": order.Number, "target": delivery.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeDelivery, delivery.DocumentHeader)
	return delivery, nil
}

func (s *salesService) GetDelivery(ctx context.Context, id string) (*model.Delivery, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.deliRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "delivery")
	}
	return doc, nil
}

func (s *salesService) ListDeliveries(ctx context.Context, status string, page, limit int) ([]model.Delivery, int64, error) {
	return s.deliRepo.List(ctx, status, page, limit)
}

func (s *salesService) TransitionDelivery(ctx context.Context, userID, id string, req TransitionRequest) (*model.Delivery, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var delivery *model.Delivery
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err = s.deliRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "delivery")
		}

		machine, err := statemachine.ForDocType(model.DocTypeDelivery)
		if err != nil {
			return err
		}
		from := delivery.Status
		gc := statemachine.GuardContext{LineCount: len(delivery.Items), HasApprover: actor != nil}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		// Persist the status first so this delivery's lines stop counting as
		// pending outflow before the stock check runs.
		delivery.Status = req.TargetStatus
		delivery.UpdatedBy = actor
		items := delivery.Items
		delivery.Items = nil
		if err := s.deliRepo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to transition delivery: %w", err)
		}
		delivery.Items = items

		if req.TargetStatus == model.StatusConfirmed {
			if err := s.applyDeliveryEffects(txCtx, actor, delivery); err != nil {
				return err
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeDelivery, delivery.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeDelivery, delivery.DocumentHeader)
	return delivery, nil
}

// applyDeliveryEffects issues the shipped stock and accumulates delivered
// quantities on the source order. Runs inside the confirmation transaction.
func (s *salesService) applyDeliveryEffects(ctx context.Context, actor *uuid.UUID, delivery *model.Delivery) error {
	for _, item := range delivery.Items {
		if err := s.stockSvc.Issue(ctx, delivery.WarehouseID, item.ProductID, item.Quantity,
			model.DocTypeDelivery, &delivery.ID, actor); err != nil {
			return err
		}
	}

	if delivery.SourceOrderID == nil {
		return nil
	}

	order, err := s.soRepo.FindByIDForUpdate(ctx, *delivery.SourceOrderID)
	if err != nil {
		return notFound(err, "sales order")
	}

	orderItems := make(map[uuid.UUID]*model.SalesOrderItem, len(order.Items))
	for i := range order.Items {
		orderItems[order.Items[i].ID] = &order.Items[i]
	}
	for _, item := range delivery.Items {
		if item.SourceOrderItemID == nil {
			continue
		}
		orderItem, ok := orderItems[*item.SourceOrderItemID]
		if !ok {
			return apperror.Newf(apperror.KindNotFound,
				"order item %s referenced by delivery line no longer exists", item.SourceOrderItemID)
		}
		delivered := orderItem.DeliveredQuantity.Add(item.Quantity)
		if delivered.GreaterThan(orderItem.Quantity) {
			return apperror.Validation("quantity",
				fmt.Sprintf("confirming would over-deliver %s: ordered %s, delivered %s",
					orderItem.ProductName, orderItem.Quantity, delivered))
		}
		orderItem.DeliveredQuantity = delivered
		if err := s.soRepo.UpdateItem(ctx, orderItem); err != nil {
			return fmt.Errorf("failed to update delivered quantity: %w", err)
		}
	}

	if order.Status == model.StatusConfirmed && orderFullyDelivered(order) {
		order.Status = model.StatusDelivered
		order.UpdatedBy = actor
		order.Items = nil
		if err := s.soRepo.Update(ctx, order); err != nil {
			return fmt.Errorf("failed to mark sales order delivered: %w", err)
		}
		return writeAudit(ctx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeSalesOrder, order.ID.String(),
			map[string]string{"from": model.StatusConfirmed, "to": model.StatusDelivered})
	}
	return nil
}

func (s *salesService) ConvertDeliveryToInvoice(ctx context.Context, userID, id string, req ConvertToInvoiceRequest) (*model.SalesInvoice, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var invoice *model.SalesInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		delivery, err := s.deliRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "delivery")
		}
		if delivery.HasInvoice {
			return apperror.New(apperror.KindAlreadyConverted, "delivery already has an invoice")
		}
		if delivery.Status != model.StatusConfirmed {
			return apperror.Newf(apperror.KindNotEligible,
				"only a confirmed delivery can be invoiced, current status is %s", delivery.Status)
		}

		sourceLines := make([]model.LineItem, 0, len(delivery.Items))
		for _, item := range delivery.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		invoice = &model.SalesInvoice{
			SourceDeliveryID: &delivery.ID,
			CustomerID:       delivery.CustomerID,
			DueDate:          req.DueDate,
		}
		invoice.CreatedBy = actor
		if err := applyTotals(&invoice.DocumentHeader, lines, delivery.DiscountPercent, delivery.ShippingCost); err != nil {
			return err
		}
		invoice.BalanceAmount = invoice.TotalAmount
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)

		number, err := s.numbers.Next(txCtx, model.DocTypeSalesInvoice, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		invoice.Number = number

		invoice.Items = make([]model.SalesInvoiceItem, 0, len(items))
		for _, item := range items {
			invoice.Items = append(invoice.Items, model.SalesInvoiceItem{LineItem: item})
		}
		if err := s.arInvRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create sales invoice: %w", err)
		}

		if err := s.balanceSvc.AddCustomerOutstanding(txCtx, invoice.CustomerID, invoice.TotalAmount); err != nil {
			return err
		}

		delivery.HasInvoice = true
		delivery.UpdatedBy = actor
		delivery.Items = nil
		if err := s.deliRepo.Update(txCtx, delivery); err != nil {
			return fmt.Errorf("failed to mark delivery invoiced: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeSalesInvoice, invoice.ID.String(),
			map[string]string{"source": delivery.Number, "target": invoice.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypeSalesInvoice, invoice.DocumentHeader)
	return invoice, nil
}

func (s *salesService) CreateGoodIssue(ctx context.Context, userID string, req CreateGoodIssueRequest) (*model.GoodIssue, error) {
	actor := parseActor(userID)

	var doc *model.GoodIssue
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var sourceOrderID *uuid.UUID
		warehouseID := uuid.Nil

		if req.OrderID != "" {
			orderID, err := parseID(req.OrderID, "order_id")
			if err != nil {
				return err
			}
			order, err := s.soRepo.FindByIDForUpdate(txCtx, orderID)
			if err != nil {
				return notFound(err, "sales order")
			}
			if order.Status != model.StatusConfirmed {
				return apperror.Newf(apperror.KindNotEligible,
					"good issues require a confirmed order, current status is %s", order.Status)
			}
			sourceOrderID = &order.ID
			if order.WarehouseID != nil {
				warehouseID = *order.WarehouseID
			}
			if !order.HasGoodIssue {
				order.HasGoodIssue = true
				order.UpdatedBy = actor
				order.Items = nil
				if err := s.soRepo.Update(txCtx, order); err != nil {
					return fmt.Errorf("failed to flag order good issue: %w", err)
				}
			}
		}
		if req.WarehouseID != "" {
			parsed, err := parseID(req.WarehouseID, "warehouse_id")
			if err != nil {
				return err
			}
			warehouseID = parsed
		}
		if warehouseID == uuid.Nil {
			return apperror.Validation("warehouse_id", "a warehouse is required")
		}

		items, lines, err := resolveLines(txCtx, s.productRepo, req.Items)
		if err != nil {
			return err
		}

		doc = &model.GoodIssue{
			SourceOrderID: sourceOrderID,
			WarehouseID:   warehouseID,
			Reason:        req.Reason,
		}
		doc.Status = model.StatusDraft
		doc.Note = req.Note
		doc.CreatedBy = actor
		if err := applyTotals(&doc.DocumentHeader, lines, decimal.Zero, decimal.Zero); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeGoodIssue, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		doc.Number = number

		doc.Items = make([]model.GoodIssueItem, 0, len(items))
		for _, item := range items {
			doc.Items = append(doc.Items, model.GoodIssueItem{LineItem: item})
		}
		if err := s.giRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create good issue: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDocument,
			model.DocTypeGoodIssue, doc.ID.String(), req)
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeGoodIssue, doc.DocumentHeader)
	return doc, nil
}

func (s *salesService) GetGoodIssue(ctx context.Context, id string) (*model.GoodIssue, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.giRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "good issue")
	}
	return doc, nil
}

func (s *salesService) ListGoodIssues(ctx context.Context, status string, page, limit int) ([]model.GoodIssue, int64, error) {
	return s.giRepo.List(ctx, status, page, limit)
}

func (s *salesService) TransitionGoodIssue(ctx context.Context, userID, id string, req TransitionRequest) (*model.GoodIssue, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.GoodIssue
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.giRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "good issue")
		}

		machine, err := statemachine.ForDocType(model.DocTypeGoodIssue)
		if err != nil {
			return err
		}
		from := doc.Status
		gc := statemachine.GuardContext{LineCount: len(doc.Items), HasApprover: actor != nil}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		// Persist the status first so this issue's lines stop counting as
		// pending outflow before the stock check runs.
		doc.Status = req.TargetStatus
		doc.UpdatedBy = actor
		items := doc.Items
		doc.Items = nil
		if err := s.giRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition good issue: %w", err)
		}
		doc.Items = items

		if req.TargetStatus == model.StatusExecuted {
			for _, item := range doc.Items {
				if err := s.stockSvc.Issue(txCtx, doc.WarehouseID, item.ProductID, item.Quantity,
					model.DocTypeGoodIssue, &doc.ID, actor); err != nil {
					return err
				}
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeGoodIssue, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeGoodIssue, doc.DocumentHeader)
	return doc, nil
}

// orderFullyDelivered reports whether every order line has shipped in full
// across confirmed deliveries.
func orderFullyDelivered(doc *model.SalesOrder) bool {
	if len(doc.Items) == 0 {
		return false
	}
	for _, item := range doc.Items {
		if item.DeliveredQuantity.LessThan(item.Quantity) {
			return false
		}
	}
	return true
}
