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

type ReturnLineRequest struct {
	InvoiceItemID string          `json:"invoice_item_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CreateReturnRequest opens a return order against an AR invoice. With no
// explicit lines, every invoiced quantity comes back.
type CreateReturnRequest struct {
	InvoiceID   string              `json:"invoice_id" binding:"required"`
	WarehouseID string              `json:"warehouse_id" binding:"required"`
	Reason      string              `json:"reason"`
	Note        string              `json:"note"`
	Items       []ReturnLineRequest `json:"items" binding:"omitempty,dive"`
}

type ReturnsService interface {
	CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (*model.ReturnOrder, error)
	GetReturn(ctx context.Context, id string) (*model.ReturnOrder, error)
	ListReturns(ctx context.Context, status string, page, limit int) ([]model.ReturnOrder, int64, error)
	// TransitionReturn moves a return order along its lifecycle. Marking it
	// received puts the returned quantities back into stock.
	TransitionReturn(ctx context.Context, userID, id string, req TransitionRequest) (*model.ReturnOrder, error)
	DeleteReturn(ctx context.Context, userID, id string) error
	ConvertReturnToCreditNote(ctx context.Context, userID, id string) (*model.CreditNote, error)

	GetCreditNote(ctx context.Context, id string) (*model.CreditNote, error)
	ListCreditNotes(ctx context.Context, status string, page, limit int) ([]model.CreditNote, int64, error)
	// TransitionCreditNote confirms or cancels a draft credit note.
	// Confirmation reduces the source invoice balance and the customer's
	// outstanding amount.
	TransitionCreditNote(ctx context.Context, userID, id string, req TransitionRequest) (*model.CreditNote, error)
}

type returnsService struct {
	retRepo    repository.ReturnOrderRepository
	cnRepo     repository.CreditNoteRepository
	arInvRepo  repository.SalesInvoiceRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	numbers    *numbering.Generator
	stockSvc   StockService
	balanceSvc BalanceService
	notifier   Notifier
}

func NewReturnsService(
	retRepo repository.ReturnOrderRepository,
	cnRepo repository.CreditNoteRepository,
	arInvRepo repository.SalesInvoiceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers *numbering.Generator,
	stockSvc StockService,
	balanceSvc BalanceService,
	notifier Notifier,
) ReturnsService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &returnsService{
		retRepo:    retRepo,
		cnRepo:     cnRepo,
		arInvRepo:  arInvRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		numbers:    numbers,
		stockSvc:   stockSvc,
		balanceSvc: balanceSvc,
		notifier:   notifier,
	}
}

func (s *returnsService) publish(event, docType string, h model.DocumentHeader) {
	s.notifier.PublishDocumentEvent(ws.DocumentEvent{
		Event:        event,
		DocumentType: docType,
		DocumentID:   h.ID.String(),
		Number:       h.Number,
		Status:       h.Status,
	})
}

func (s *returnsService) CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (*model.ReturnOrder, error) {
	invoiceID, err := parseID(req.InvoiceID, "invoice_id")
	if err != nil {
		return nil, err
	}
	warehouseID, err := parseID(req.WarehouseID, "warehouse_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.ReturnOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.arInvRepo.FindByIDForUpdate(txCtx, invoiceID)
		if err != nil {
			return notFound(err, "sales invoice")
		}
		if invoice.Status == model.StatusCancelled {
			return apperror.New(apperror.KindNotEligible, "a cancelled invoice cannot be returned against")
		}

		invoiceItems := make(map[uuid.UUID]*model.SalesInvoiceItem, len(invoice.Items))
		for i := range invoice.Items {
			invoiceItems[invoice.Items[i].ID] = &invoice.Items[i]
		}

		type plannedLine struct {
			invoiceItem *model.SalesInvoiceItem
			qty         decimal.Decimal
		}
		var planned []plannedLine
		if len(req.Items) == 0 {
			for i := range invoice.Items {
				item := &invoice.Items[i]
				if item.Quantity.IsPositive() {
					planned = append(planned, plannedLine{invoiceItem: item, qty: item.Quantity})
				}
			}
		} else {
			for _, line := range req.Items {
				itemID, err := parseID(line.InvoiceItemID, "invoice_item_id")
				if err != nil {
					return err
				}
				item, ok := invoiceItems[itemID]
				if !ok {
					return apperror.Newf(apperror.KindNotFound,
						"invoice item %s not found on invoice %s", line.InvoiceItemID, invoice.Number)
				}
				if !line.Quantity.IsPositive() {
					return apperror.Validation("quantity", "must be greater than zero")
				}
				if line.Quantity.GreaterThan(item.Quantity) {
					return apperror.Validation("quantity",
						fmt.Sprintf("return quantity %s exceeds invoiced quantity %s for %s",
							line.Quantity, item.Quantity, item.ProductName))
				}
				planned = append(planned, plannedLine{invoiceItem: item, qty: line.Quantity})
			}
		}
		if len(planned) == 0 {
			return apperror.New(apperror.KindNotEligible, "the invoice has nothing to return")
		}

		doc = &model.ReturnOrder{
			SourceInvoiceID: &invoice.ID,
			CustomerID:      invoice.CustomerID,
			WarehouseID:     warehouseID,
			Reason:          req.Reason,
		}
		doc.Status = model.StatusDraft
		doc.Note = req.Note
		doc.CreatedBy = actor

		lines := make([]money.Line, 0, len(planned))
		doc.Items = make([]model.ReturnOrderItem, 0, len(planned))
		for _, p := range planned {
			line := money.Line{
				Quantity:        p.qty,
				UnitPrice:       p.invoiceItem.UnitPrice,
				DiscountPercent: p.invoiceItem.DiscountPercent,
				DiscountAmount:  p.invoiceItem.DiscountAmount,
				TaxRate:         p.invoiceItem.TaxRate,
			}
			lines = append(lines, line)
			doc.Items = append(doc.Items, model.ReturnOrderItem{
				LineItem: model.LineItem{
					ProductID:       p.invoiceItem.ProductID,
					ProductName:     p.invoiceItem.ProductName,
					Quantity:        p.qty,
					UnitPrice:       p.invoiceItem.UnitPrice,
					DiscountPercent: p.invoiceItem.DiscountPercent,
					DiscountAmount:  p.invoiceItem.DiscountAmount,
					TaxRate:         p.invoiceItem.TaxRate,
					LineTotal:       money.LineTotal(line),
				},
			})
		}
		if err := applyTotals(&doc.DocumentHeader, lines, invoice.DiscountPercent, decimal.Zero); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeReturnOrder, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		doc.Number = number

		if err := s.retRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create return order: %w", err)
		}

		if !invoice.HasReturnOrder {
			invoice.HasReturnOrder = true
			invoice.UpdatedBy = actor
			invoice.Items = nil
			if err := s.arInvRepo.Update(txCtx, invoice); err != nil {
				return fmt.Errorf("failed to flag invoice return: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDocument,
			model.DocTypeReturnOrder, doc.ID.String(),
			map[string]string{"source": invoice.Number, "target": doc.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeReturnOrder, doc.DocumentHeader)
	return doc, nil
}

func (s *returnsService) GetReturn(ctx context.Context, id string) (*model.ReturnOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.retRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "return order")
	}
	return doc, nil
}

func (s *returnsService) ListReturns(ctx context.Context, status string, page, limit int) ([]model.ReturnOrder, int64, error) {
	return s.retRepo.List(ctx, status, page, limit)
}

func (s *returnsService) TransitionReturn(ctx context.Context, userID, id string, req TransitionRequest) (*model.ReturnOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.ReturnOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.retRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "return order")
		}

		machine, err := statemachine.ForDocType(model.DocTypeReturnOrder)
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
		items := doc.Items
		doc.Items = nil
		if err := s.retRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition return order: %w", err)
		}
		doc.Items = items

		if req.TargetStatus == model.StatusReceived {
			for _, item := range doc.Items {
				if err := s.stockSvc.ReturnIn(txCtx, doc.WarehouseID, item.ProductID, item.Quantity,
					model.DocTypeReturnOrder, &doc.ID, actor); err != nil {
					return err
				}
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeReturnOrder, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeReturnOrder, doc.DocumentHeader)
	return doc, nil
}

func (s *returnsService) DeleteReturn(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.retRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "return order")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft return orders can be deleted, current status is %s", doc.Status)
		}
		if err := s.retRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete return order: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeReturnOrder, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *returnsService) ConvertReturnToCreditNote(ctx context.Context, userID, id string) (*model.CreditNote, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var note *model.CreditNote
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, err := s.retRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "return order")
		}
		if ret.HasCreditNote {
			return apperror.New(apperror.KindAlreadyConverted, "return order already has a credit note")
		}
		if ret.Status != model.StatusReceived {
			return apperror.Newf(apperror.KindNotEligible,
				"only a received return order can be credited, current status is %s", ret.Status)
		}
		if ret.SourceInvoiceID == nil {
			return apperror.New(apperror.KindNotEligible, "the return order has no source invoice to credit")
		}

		sourceLines := make([]model.LineItem, 0, len(ret.Items))
		for _, item := range ret.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		note = &model.CreditNote{
			SourceInvoiceID:     *ret.SourceInvoiceID,
			SourceReturnOrderID: &ret.ID,
			CustomerID:          ret.CustomerID,
		}
		note.Status = model.StatusDraft
		note.CreatedBy = actor
		if err := applyTotals(&note.DocumentHeader, lines, ret.DiscountPercent, decimal.Zero); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeCreditNote, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		note.Number = number

		note.Items = make([]model.CreditNoteItem, 0, len(items))
		for _, item := range items {
			note.Items = append(note.Items, model.CreditNoteItem{LineItem: item})
		}
		if err := s.cnRepo.Create(txCtx, note); err != nil {
			return fmt.Errorf("failed to create credit note: %w", err)
		}

		ret.HasCreditNote = true
		ret.UpdatedBy = actor
		ret.Items = nil
		if err := s.retRepo.Update(txCtx, ret); err != nil {
			return fmt.Errorf("failed to mark return order credited: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeCreditNote, note.ID.String(),
			map[string]string{"source": ret.Number, "target": note.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypeCreditNote, note.DocumentHeader)
	return note, nil
}

func (s *returnsService) GetCreditNote(ctx context.Context, id string) (*model.CreditNote, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.cnRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "credit note")
	}
	return doc, nil
}

func (s *returnsService) ListCreditNotes(ctx context.Context, status string, page, limit int) ([]model.CreditNote, int64, error) {
	return s.cnRepo.List(ctx, status, page, limit)
}

func (s *returnsService) TransitionCreditNote(ctx context.Context, userID, id string, req TransitionRequest) (*model.CreditNote, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var note *model.CreditNote
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		note, err = s.cnRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "credit note")
		}

		machine, err := statemachine.ForDocType(model.DocTypeCreditNote)
		if err != nil {
			return err
		}
		from := note.Status
		gc := statemachine.GuardContext{LineCount: len(note.Items), HasApprover: actor != nil}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		if req.TargetStatus == model.StatusConfirmed {
			if err := s.applyCreditNote(txCtx, actor, note); err != nil {
				return err
			}
		}

		note.Status = req.TargetStatus
		note.UpdatedBy = actor
		items := note.Items
		note.Items = nil
		if err := s.cnRepo.Update(txCtx, note); err != nil {
			return fmt.Errorf("failed to transition credit note: %w", err)
		}
		note.Items = items

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeCreditNote, note.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeCreditNote, note.DocumentHeader)
	return note, nil
}

// applyCreditNote reduces the source invoice balance and the customer's
// outstanding amount by the note's total. The credit can never exceed what is
// still owed on the invoice.
func (s *returnsService) applyCreditNote(ctx context.Context, actor *uuid.UUID, note *model.CreditNote) error {
	invoice, err := s.arInvRepo.FindByIDForUpdate(ctx, note.SourceInvoiceID)
	if err != nil {
		return notFound(err, "sales invoice")
	}
	if note.TotalAmount.GreaterThan(invoice.BalanceAmount) {
		return apperror.Validation("total_amount",
			fmt.Sprintf("credit %s exceeds the open invoice balance %s", note.TotalAmount, invoice.BalanceAmount))
	}

	invoice.BalanceAmount = invoice.BalanceAmount.Sub(note.TotalAmount)
	invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)
	invoice.UpdatedBy = actor
	invoice.Items = nil
	if err := s.arInvRepo.Update(ctx, invoice); err != nil {
		return fmt.Errorf("failed to apply credit to invoice: %w", err)
	}

	return s.balanceSvc.AddCustomerOutstanding(ctx, invoice.CustomerID, note.TotalAmount.Neg())
}
