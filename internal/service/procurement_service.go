package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/internal/numbering"
	"erp-backend/internal/repository"
	"erp-backend/internal/statemachine"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/apperror"
)

type CreateRequisitionRequest struct {
	Purpose         string            `json:"purpose"`
	RequiredBy      *time.Time        `json:"required_by"`
	Note            string            `json:"note"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	ShippingCost    decimal.Decimal   `json:"shipping_cost"`
	Items           []LineItemRequest `json:"items" binding:"required,min=1,dive"`
}

// TransitionRequest moves a document to a target status. PartialCompletion is
// honored only on a purchase order closing with unreceived quantity.
type TransitionRequest struct {
	TargetStatus      string `json:"target_status" binding:"required"`
	PartialCompletion bool   `json:"partial_completion"`
}

type ConvertToRFQRequest struct {
	VendorID string     `json:"vendor_id"`
	DueDate  *time.Time `json:"due_date"`
}

// ConvertToQuotationRequest records the vendor's priced response. When Items
// are present they replace the RFQ lines; otherwise the lines carry over.
type ConvertToQuotationRequest struct {
	VendorID        string            `json:"vendor_id"`
	ValidUntil      *time.Time        `json:"valid_until"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	ShippingCost    decimal.Decimal   `json:"shipping_cost"`
	Items           []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

type ConvertToOrderRequest struct {
	WarehouseID  string     `json:"warehouse_id" binding:"required"`
	ExpectedDate *time.Time `json:"expected_date"`
}

type ProcurementService interface {
	CreateRequisition(ctx context.Context, userID string, req CreateRequisitionRequest) (*model.Requisition, error)
	UpdateRequisition(ctx context.Context, userID, id string, req CreateRequisitionRequest) (*model.Requisition, error)
	GetRequisition(ctx context.Context, id string) (*model.Requisition, error)
	ListRequisitions(ctx context.Context, status string, page, limit int) ([]model.Requisition, int64, error)
	TransitionRequisition(ctx context.Context, userID, id string, req TransitionRequest) (*model.Requisition, error)
	DeleteRequisition(ctx context.Context, userID, id string) error
	ConvertRequisitionToRFQ(ctx context.Context, userID, id string, req ConvertToRFQRequest) (*model.RFQ, error)

	GetRFQ(ctx context.Context, id string) (*model.RFQ, error)
	ListRFQs(ctx context.Context, status string, page, limit int) ([]model.RFQ, int64, error)
	TransitionRFQ(ctx context.Context, userID, id string, req TransitionRequest) (*model.RFQ, error)
	DeleteRFQ(ctx context.Context, userID, id string) error
	ConvertRFQToQuotation(ctx context.Context, userID, id string, req ConvertToQuotationRequest) (*model.PurchaseQuotation, error)

	GetQuotation(ctx context.Context, id string) (*model.PurchaseQuotation, error)
	ListQuotations(ctx context.Context, status string, page, limit int) ([]model.PurchaseQuotation, int64, error)
	TransitionQuotation(ctx context.Context, userID, id string, req TransitionRequest) (*model.PurchaseQuotation, error)
	DeleteQuotation(ctx context.Context, userID, id string) error
	ConvertQuotationToOrder(ctx context.Context, userID, id string, req ConvertToOrderRequest) (*model.PurchaseOrder, error)

	GetOrder(ctx context.Context, id string) (*model.PurchaseOrder, error)
	ListOrders(ctx context.Context, status string, page, limit int) ([]model.PurchaseOrder, int64, error)
	TransitionOrder(ctx context.Context, userID, id string, req TransitionRequest) (*model.PurchaseOrder, error)
	DeleteOrder(ctx context.Context, userID, id string) error
}

type procurementService struct {
	reqRepo     repository.RequisitionRepository
	rfqRepo     repository.RFQRepository
	pqRepo      repository.PurchaseQuotationRepository
	poRepo      repository.PurchaseOrderRepository
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	numbers     *numbering.Generator
	notifier    Notifier
}

func NewProcurementService(
	reqRepo repository.RequisitionRepository,
	rfqRepo repository.RFQRepository,
	pqRepo repository.PurchaseQuotationRepository,
	poRepo repository.PurchaseOrderRepository,
	productRepo repository.ProductRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers *numbering.Generator,
	notifier Notifier,
) ProcurementService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &procurementService{
		reqRepo:     reqRepo,
		rfqRepo:     rfqRepo,
		pqRepo:      pqRepo,
		poRepo:      poRepo,
		productRepo: productRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		numbers:     numbers,
		notifier:    notifier,
	}
}

func (s *procurementService) publish(event, docType string, h model.DocumentHeader) {
	s.notifier.PublishDocumentEvent(ws.DocumentEvent{
		Event:        event,
		DocumentType: docType,
		DocumentID:   h.ID.String(),
		Number:       h.Number,
		Status:       h.Status,
	})
}

func (s *procurementService) CreateRequisition(ctx context.Context, userID string, req CreateRequisitionRequest) (*model.Requisition, error) {
	actor := parseActor(userID)

	doc := &model.Requisition{
		Purpose:    req.Purpose,
		RequiredBy: req.RequiredBy,
	}
	doc.Note = req.Note
	doc.Status = model.StatusDraft
	doc.CreatedBy = actor

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		items, lines, err := resolveLines(txCtx, s.productRepo, req.Items)
		if err != nil {
			return err
		}
		if err := applyTotals(&doc.DocumentHeader, lines, req.DiscountPercent, req.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeRequisition, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		doc.Number = number

		doc.Items = make([]model.RequisitionItem, 0, len(items))
		for _, item := range items {
			doc.Items = append(doc.Items, model.RequisitionItem{LineItem: item})
		}
		if err := s.reqRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("failed to create requisition: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDocument,
			model.DocTypeRequisition, doc.ID.String(), req)
	})
	if err != nil {
		return nil, err
	}

	s.publish("created", model.DocTypeRequisition, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) UpdateRequisition(ctx context.Context, userID, id string, req CreateRequisitionRequest) (*model.Requisition, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.Requisition
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.reqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "requisition")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft requisitions can be edited, current status is %s", doc.Status)
		}

		items, lines, err := resolveLines(txCtx, s.productRepo, req.Items)
		if err != nil {
			return err
		}
		if err := applyTotals(&doc.DocumentHeader, lines, req.DiscountPercent, req.ShippingCost); err != nil {
			return err
		}

		doc.Purpose = req.Purpose
		doc.RequiredBy = req.RequiredBy
		doc.Note = req.Note
		doc.UpdatedBy = actor
		doc.Items = nil
		if err := s.reqRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update requisition: %w", err)
		}

		// Draft lines have no downstream links, replace them wholesale.
		replacement := make([]model.RequisitionItem, 0, len(items))
		for _, item := range items {
			replacement = append(replacement, model.RequisitionItem{LineItem: item, RequisitionID: doc.ID})
		}
		if err := s.reqRepo.ReplaceItems(txCtx, doc.ID, replacement); err != nil {
			return fmt.Errorf("failed to replace requisition lines: %w", err)
		}
		doc.Items = replacement

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateDocument,
			model.DocTypeRequisition, doc.ID.String(), req)
	})
	if err != nil {
		return nil, err
	}

	s.publish("updated", model.DocTypeRequisition, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) GetRequisition(ctx context.Context, id string) (*model.Requisition, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.reqRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "requisition")
	}
	return doc, nil
}

func (s *procurementService) ListRequisitions(ctx context.Context, status string, page, limit int) ([]model.Requisition, int64, error) {
	return s.reqRepo.List(ctx, status, page, limit)
}

func (s *procurementService) TransitionRequisition(ctx context.Context, userID, id string, req TransitionRequest) (*model.Requisition, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.Requisition
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.reqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "requisition")
		}

		machine, err := statemachine.ForDocType(model.DocTypeRequisition)
		if err != nil {
			return err
		}
		gc := statemachine.GuardContext{
			LineCount:   len(doc.Items),
			HasPurpose:  doc.Purpose != "",
			HasApprover: actor != nil,
		}
		from := doc.Status
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		doc.Status = req.TargetStatus
		doc.UpdatedBy = actor
		if req.TargetStatus == model.StatusApproved {
			now := time.Now()
			doc.ApprovedBy = actor
			doc.ApprovedAt = &now
		}
		if err := s.reqRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition requisition: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeRequisition, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeRequisition, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) DeleteRequisition(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.reqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "requisition")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft requisitions can be deleted, current status is %s", doc.Status)
		}
		if err := s.reqRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete requisition: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeRequisition, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *procurementService) ConvertRequisitionToRFQ(ctx context.Context, userID, id string, req ConvertToRFQRequest) (*model.RFQ, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var vendorID *uuid.UUID
	if req.VendorID != "" {
		parsed, err := parseID(req.VendorID, "vendor_id")
		if err != nil {
			return nil, err
		}
		vendorID = &parsed
	}

	var rfq *model.RFQ
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		source, err := s.reqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "requisition")
		}
		if source.HasRFQ {
			return apperror.New(apperror.KindAlreadyConverted, "requisition already has an RFQ")
		}
		if source.Status != model.StatusApproved {
			return apperror.Newf(apperror.KindNotEligible,
				"requisition must be approved before conversion, current status is %s", source.Status)
		}

		sourceLines := make([]model.LineItem, 0, len(source.Items))
		for _, item := range source.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		rfq = &model.RFQ{
			SourceRequisitionID: &source.ID,
			VendorID:            vendorID,
			DueDate:             req.DueDate,
		}
		rfq.Status = model.StatusDraft
		rfq.CreatedBy = actor
		if err := applyTotals(&rfq.DocumentHeader, lines, source.DiscountPercent, source.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeRFQ, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		rfq.Number = number

		rfq.Items = make([]model.RFQItem, 0, len(items))
		for _, item := range items {
			rfq.Items = append(rfq.Items, model.RFQItem{LineItem: item})
		}
		if err := s.rfqRepo.Create(txCtx, rfq); err != nil {
			return fmt.Errorf("failed to create rfq: %w", err)
		}

		source.HasRFQ = true
		source.UpdatedBy = actor
		source.Items = nil
		if err := s.reqRepo.Update(txCtx, source); err != nil {
			return fmt.Errorf("failed to mark requisition converted: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypeRFQ, rfq.ID.String(),
			map[string]string{"source": source.Number, "target": rfq.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypeRFQ, rfq.DocumentHeader)
	return rfq, nil
}

func (s *procurementService) GetRFQ(ctx context.Context, id string) (*model.RFQ, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.rfqRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "rfq")
	}
	return doc, nil
}

func (s *procurementService) ListRFQs(ctx context.Context, status string, page, limit int) ([]model.RFQ, int64, error) {
	return s.rfqRepo.List(ctx, status, page, limit)
}

func (s *procurementService) TransitionRFQ(ctx context.Context, userID, id string, req TransitionRequest) (*model.RFQ, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.RFQ
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.rfqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "rfq")
		}

		machine, err := statemachine.ForDocType(model.DocTypeRFQ)
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
		if err := s.rfqRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition rfq: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypeRFQ, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypeRFQ, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) DeleteRFQ(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.rfqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "rfq")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft rfqs can be deleted, current status is %s", doc.Status)
		}
		if err := s.rfqRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete rfq: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeRFQ, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *procurementService) ConvertRFQToQuotation(ctx context.Context, userID, id string, req ConvertToQuotationRequest) (*model.PurchaseQuotation, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var quotation *model.PurchaseQuotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		source, err := s.rfqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "rfq")
		}
		if source.HasQuotation {
			return apperror.New(apperror.KindAlreadyConverted, "rfq already has a quotation")
		}
		if source.Status != model.StatusQuoted {
			return apperror.Newf(apperror.KindNotEligible,
				"rfq must be quoted before conversion, current status is %s", source.Status)
		}

		vendorID := uuid.Nil
		if source.VendorID != nil {
			vendorID = *source.VendorID
		}
		if req.VendorID != "" {
			vendorID, err = parseID(req.VendorID, "vendor_id")
			if err != nil {
				return err
			}
		}
		if vendorID == uuid.Nil {
			return apperror.Validation("vendor_id", "a vendor is required for a purchase quotation")
		}

		var items []model.LineItem
		discount := source.DiscountPercent
		shipping := source.ShippingCost
		if len(req.Items) > 0 {
			resolved, resolvedLines, err := resolveLines(txCtx, s.productRepo, req.Items)
			if err != nil {
				return err
			}
			items = resolved
			discount = req.DiscountPercent
			shipping = req.ShippingCost
			quotation = &model.PurchaseQuotation{}
			if err := applyTotals(&quotation.DocumentHeader, resolvedLines, discount, shipping); err != nil {
				return err
			}
		} else {
			sourceLines := make([]model.LineItem, 0, len(source.Items))
			for _, item := range source.Items {
				sourceLines = append(sourceLines, item.LineItem)
			}
			copied, copiedLines := copyLines(sourceLines)
			items = copied
			quotation = &model.PurchaseQuotation{}
			if err := applyTotals(&quotation.DocumentHeader, copiedLines, discount, shipping); err != nil {
				return err
			}
		}

		quotation.SourceRFQID = &source.ID
		quotation.VendorID = vendorID
		quotation.ValidUntil = req.ValidUntil
		quotation.Status = model.StatusDraft
		quotation.CreatedBy = actor

		number, err := s.numbers.Next(txCtx, model.DocTypePurchaseQuotation, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		quotation.Number = number

		quotation.Items = make([]model.PurchaseQuotationItem, 0, len(items))
		for _, item := range items {
			quotation.Items = append(quotation.Items, model.PurchaseQuotationItem{LineItem: item})
		}
		if err := s.pqRepo.Create(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to create purchase quotation: %w", err)
		}

		source.HasQuotation = true
		source.UpdatedBy = actor
		source.Items = nil
		if err := s.rfqRepo.Update(txCtx, source); err != nil {
			return fmt.Errorf("failed to mark rfq converted: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypePurchaseQuotation, quotation.ID.String(),
			map[string]string{"source": source.Number, "target": quotation.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypePurchaseQuotation, quotation.DocumentHeader)
	return quotation, nil
}

func (s *procurementService) GetQuotation(ctx context.Context, id string) (*model.PurchaseQuotation, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.pqRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "purchase quotation")
	}
	return doc, nil
}

func (s *procurementService) ListQuotations(ctx context.Context, status string, page, limit int) ([]model.PurchaseQuotation, int64, error) {
	return s.pqRepo.List(ctx, status, page, limit)
}

func (s *procurementService) TransitionQuotation(ctx context.Context, userID, id string, req TransitionRequest) (*model.PurchaseQuotation, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.PurchaseQuotation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.pqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase quotation")
		}

		machine, err := statemachine.ForDocType(model.DocTypePurchaseQuotation)
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
		if err := s.pqRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition purchase quotation: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypePurchaseQuotation, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypePurchaseQuotation, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) DeleteQuotation(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.pqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase quotation")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft quotations can be deleted, current status is %s", doc.Status)
		}
		if err := s.pqRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete purchase quotation: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypePurchaseQuotation, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

func (s *procurementService) ConvertQuotationToOrder(ctx context.Context, userID, id string, req ConvertToOrderRequest) (*model.PurchaseOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	warehouseID, err := parseID(req.WarehouseID, "warehouse_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var order *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		source, err := s.pqRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase quotation")
		}
		if source.HasPurchaseOrder {
			return apperror.New(apperror.KindAlreadyConverted, "quotation already has a purchase order")
		}
		if source.Status != model.StatusSelected {
			return apperror.Newf(apperror.KindNotEligible,
				"quotation must be selected before conversion, current status is %s", source.Status)
		}

		sourceLines := make([]model.LineItem, 0, len(source.Items))
		for _, item := range source.Items {
			sourceLines = append(sourceLines, item.LineItem)
		}
		items, lines := copyLines(sourceLines)

		order = &model.PurchaseOrder{
			SourceQuotationID: &source.ID,
			VendorID:          source.VendorID,
			WarehouseID:       &warehouseID,
			ExpectedDate:      req.ExpectedDate,
		}
		order.Status = model.StatusDraft
		order.CreatedBy = actor
		if err := applyTotals(&order.DocumentHeader, lines, source.DiscountPercent, source.ShippingCost); err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypePurchaseOrder, numbering.Period(time.Now()))
		if err != nil {
			return err
		}
		order.Number = number

		order.Items = make([]model.PurchaseOrderItem, 0, len(items))
		for _, item := range items {
			order.Items = append(order.Items, model.PurchaseOrderItem{
				LineItem:         item,
				ReceivedQuantity: decimal.Zero,
			})
		}
		if err := s.poRepo.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}

		source.HasPurchaseOrder = true
		source.UpdatedBy = actor
		source.Items = nil
		if err := s.pqRepo.Update(txCtx, source); err != nil {
			return fmt.Errorf("failed to mark quotation converted: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionConvert,
			model.DocTypePurchaseOrder, order.ID.String(),
			map[string]string{"source": source.Number, "target": order.Number})
	})
	if err != nil {
		return nil, err
	}

	s.publish("converted", model.DocTypePurchaseOrder, order.DocumentHeader)
	return order, nil
}

func (s *procurementService) GetOrder(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.poRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "purchase order")
	}
	return doc, nil
}

func (s *procurementService) ListOrders(ctx context.Context, status string, page, limit int) ([]model.PurchaseOrder, int64, error) {
	return s.poRepo.List(ctx, status, page, limit)
}

func (s *procurementService) TransitionOrder(ctx context.Context, userID, id string, req TransitionRequest) (*model.PurchaseOrder, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var doc *model.PurchaseOrder
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err = s.poRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase order")
		}

		machine, err := statemachine.ForDocType(model.DocTypePurchaseOrder)
		if err != nil {
			return err
		}
		from := doc.Status
		gc := statemachine.GuardContext{
			LineCount:       len(doc.Items),
			HasApprover:     actor != nil,
			ReceiptComplete: orderFullyReceived(doc),
			PartialOverride: req.PartialCompletion || doc.PartialCompletion,
		}
		if err := machine.Transition(from, req.TargetStatus, gc); err != nil {
			return err
		}

		doc.Status = req.TargetStatus
		doc.UpdatedBy = actor
		if req.TargetStatus == model.StatusCompleted && req.PartialCompletion {
			doc.PartialCompletion = true
		}
		if err := s.poRepo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to transition purchase order: %w", err)
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionTransition,
			model.DocTypePurchaseOrder, doc.ID.String(),
			map[string]string{"from": from, "to": req.TargetStatus})
	})
	if err != nil {
		return nil, err
	}

	s.publish("transitioned", model.DocTypePurchaseOrder, doc.DocumentHeader)
	return doc, nil
}

func (s *procurementService) DeleteOrder(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.poRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase order")
		}
		if doc.Status != model.StatusDraft {
			return apperror.Newf(apperror.KindValidation, "only draft purchase orders can be deleted, current status is %s", doc.Status)
		}
		if err := s.poRepo.Delete(txCtx, docID); err != nil {
			return fmt.Errorf("failed to delete purchase order: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypePurchaseOrder, doc.ID.String(), map[string]string{"number": doc.Number})
	})
}

// orderFullyReceived reports whether every order line has been received in
// full across confirmed goods receipts.
func orderFullyReceived(doc *model.PurchaseOrder) bool {
	if len(doc.Items) == 0 {
		return false
	}
	for _, item := range doc.Items {
		if item.ReceivedQuantity.LessThan(item.Quantity) {
			return false
		}
	}
	return true
}
