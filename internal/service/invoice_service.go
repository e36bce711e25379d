package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/internal/money"
	"erp-backend/internal/numbering"
	"erp-backend/internal/repository"
	"erp-backend/internal/statemachine"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/apperror"
)

// PaymentRequest records a settlement against an invoice. PaidAt defaults to
// the current time.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method"`
	PaidAt *time.Time      `json:"paid_at"`
}

type InvoiceService interface {
	GetPurchaseInvoice(ctx context.Context, id string) (*model.PurchaseInvoice, error)
	ListPurchaseInvoices(ctx context.Context, status string, page, limit int) ([]model.PurchaseInvoice, int64, error)
	// DeletePurchaseInvoice removes an invoice that has no payments against it
	// and reverses its effect on the vendor's outstanding balance.
	DeletePurchaseInvoice(ctx context.Context, userID, id string) error

	AddVendorPayment(ctx context.Context, userID, invoiceID string, req PaymentRequest) (*model.VendorPayment, error)
	RemoveVendorPayment(ctx context.Context, userID, paymentID string) error
	ListVendorPayments(ctx context.Context, invoiceID string) ([]model.VendorPayment, error)

	GetSalesInvoice(ctx context.Context, id string) (*model.SalesInvoice, error)
	ListSalesInvoices(ctx context.Context, status string, page, limit int) ([]model.SalesInvoice, int64, error)
	DeleteSalesInvoice(ctx context.Context, userID, id string) error

	AddCustomerPayment(ctx context.Context, userID, invoiceID string, req PaymentRequest) (*model.CustomerPayment, error)
	RemoveCustomerPayment(ctx context.Context, userID, paymentID string) error
	ListCustomerPayments(ctx context.Context, invoiceID string) ([]model.CustomerPayment, error)
}

type invoiceService struct {
	apInvRepo  repository.PurchaseInvoiceRepository
	arInvRepo  repository.SalesInvoiceRepository
	vpayRepo   repository.VendorPaymentRepository
	cpayRepo   repository.CustomerPaymentRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	numbers    *numbering.Generator
	balanceSvc BalanceService
	notifier   Notifier
}

func NewInvoiceService(
	apInvRepo repository.PurchaseInvoiceRepository,
	arInvRepo repository.SalesInvoiceRepository,
	vpayRepo repository.VendorPaymentRepository,
	cpayRepo repository.CustomerPaymentRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	numbers *numbering.Generator,
	balanceSvc BalanceService,
	notifier Notifier,
) InvoiceService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &invoiceService{
		apInvRepo:  apInvRepo,
		arInvRepo:  arInvRepo,
		vpayRepo:   vpayRepo,
		cpayRepo:   cpayRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		numbers:    numbers,
		balanceSvc: balanceSvc,
		notifier:   notifier,
	}
}

func (s *invoiceService) publish(event, docType string, h model.DocumentHeader) {
	s.notifier.PublishDocumentEvent(ws.DocumentEvent{
		Event:        event,
		DocumentType: docType,
		DocumentID:   h.ID.String(),
		Number:       h.Number,
		Status:       h.Status,
	})
}

func validatePayment(req PaymentRequest, balance decimal.Decimal) (decimal.Decimal, time.Time, error) {
	amount := money.Round(req.Amount)
	if !amount.IsPositive() {
		return decimal.Zero, time.Time{}, apperror.Validation("amount", "must be greater than zero")
	}
	if amount.GreaterThan(balance) {
		return decimal.Zero, time.Time{}, apperror.Validation("amount",
			fmt.Sprintf("payment %s exceeds the open balance %s", amount, balance))
	}
	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	return amount, paidAt, nil
}

func (s *invoiceService) GetPurchaseInvoice(ctx context.Context, id string) (*model.PurchaseInvoice, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.apInvRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "purchase invoice")
	}
	return doc, nil
}

func (s *invoiceService) ListPurchaseInvoices(ctx context.Context, status string, page, limit int) ([]model.PurchaseInvoice, int64, error) {
	return s.apInvRepo.List(ctx, status, page, limit)
}

func (s *invoiceService) DeletePurchaseInvoice(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.apInvRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase invoice")
		}

		paid, err := s.vpayRepo.SumActiveByInvoice(txCtx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		if paid.IsPositive() {
			return apperror.New(apperror.KindValidation,
				"the invoice has payments against it; remove them before deleting")
		}

		if err := s.apInvRepo.Delete(txCtx, invoice.ID); err != nil {
			return fmt.Errorf("failed to delete purchase invoice: %w", err)
		}
		if err := s.balanceSvc.AddVendorOutstanding(txCtx, invoice.VendorID, invoice.BalanceAmount.Neg()); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypePurchaseInvoice, invoice.ID.String(), map[string]string{"number": invoice.Number})
	})
}

func (s *invoiceService) AddVendorPayment(ctx context.Context, userID, invoiceID string, req PaymentRequest) (*model.VendorPayment, error) {
	docID, err := parseID(invoiceID, "invoice_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var payment *model.VendorPayment
	var invoice *model.PurchaseInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err = s.apInvRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "purchase invoice")
		}
		if invoice.Status == model.StatusCancelled {
			return apperror.New(apperror.KindNotEligible, "a cancelled invoice cannot be paid")
		}

		amount, paidAt, err := validatePayment(req, invoice.BalanceAmount)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeVendorPayment, numbering.Period(paidAt))
		if err != nil {
			return err
		}

		payment = &model.VendorPayment{
			Number:    number,
			InvoiceID: invoice.ID,
			VendorID:  invoice.VendorID,
			Amount:    amount,
			Method:    req.Method,
			PaidAt:    paidAt,
			CreatedBy: actor,
		}
		if err := s.vpayRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to create vendor payment: %w", err)
		}

		invoice.BalanceAmount = invoice.BalanceAmount.Sub(amount)
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)
		invoice.UpdatedBy = actor
		invoice.Items = nil
		if err := s.apInvRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}

		if err := s.balanceSvc.AddVendorOutstanding(txCtx, invoice.VendorID, amount.Neg()); err != nil {
			return err
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionAddPayment,
			model.DocTypePurchaseInvoice, invoice.ID.String(),
			map[string]string{"payment": payment.Number, "amount": amount.String()})
	})
	if err != nil {
		return nil, err
	}

	s.publish("payment_added", model.DocTypePurchaseInvoice, invoice.DocumentHeader)
	return payment, nil
}

func (s *invoiceService) RemoveVendorPayment(ctx context.Context, userID, paymentID string) error {
	payID, err := parseID(paymentID, "payment_id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	var invoice *model.PurchaseInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, err := s.vpayRepo.FindByID(txCtx, payID)
		if err != nil {
			return notFound(err, "vendor payment")
		}

		invoice, err = s.apInvRepo.FindByIDForUpdate(txCtx, payment.InvoiceID)
		if err != nil {
			return notFound(err, "purchase invoice")
		}

		if err := s.vpayRepo.Delete(txCtx, payment.ID); err != nil {
			return fmt.Errorf("failed to remove vendor payment: %w", err)
		}

		invoice.BalanceAmount = invoice.BalanceAmount.Add(payment.Amount)
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)
		invoice.UpdatedBy = actor
		invoice.Items = nil
		if err := s.apInvRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}

		if err := s.balanceSvc.AddVendorOutstanding(txCtx, invoice.VendorID, payment.Amount); err != nil {
			return err
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRemovePayment,
			model.DocTypePurchaseInvoice, invoice.ID.String(),
			map[string]string{"payment": payment.Number, "amount": payment.Amount.String()})
	})
	if err != nil {
		return err
	}

	s.publish("payment_removed", model.DocTypePurchaseInvoice, invoice.DocumentHeader)
	return nil
}

func (s *invoiceService) ListVendorPayments(ctx context.Context, invoiceID string) ([]model.VendorPayment, error) {
	docID, err := parseID(invoiceID, "invoice_id")
	if err != nil {
		return nil, err
	}
	return s.vpayRepo.ListByInvoice(ctx, docID)
}

func (s *invoiceService) GetSalesInvoice(ctx context.Context, id string) (*model.SalesInvoice, error) {
	docID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	doc, err := s.arInvRepo.FindByID(ctx, docID)
	if err != nil {
		return nil, notFound(err, "sales invoice")
	}
	return doc, nil
}

func (s *invoiceService) ListSalesInvoices(ctx context.Context, status string, page, limit int) ([]model.SalesInvoice, int64, error) {
	return s.arInvRepo.List(ctx, status, page, limit)
}

func (s *invoiceService) DeleteSalesInvoice(ctx context.Context, userID, id string) error {
	docID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.arInvRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales invoice")
		}

		received, err := s.cpayRepo.SumActiveByInvoice(txCtx, invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		if received.IsPositive() {
			return apperror.New(apperror.KindValidation,
				"the invoice has payments against it; remove them before deleting")
		}

		if err := s.arInvRepo.Delete(txCtx, invoice.ID); err != nil {
			return fmt.Errorf("failed to delete sales invoice: %w", err)
		}
		if err := s.balanceSvc.AddCustomerOutstanding(txCtx, invoice.CustomerID, invoice.BalanceAmount.Neg()); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteDocument,
			model.DocTypeSalesInvoice, invoice.ID.String(), map[string]string{"number": invoice.Number})
	})
}

func (s *invoiceService) AddCustomerPayment(ctx context.Context, userID, invoiceID string, req PaymentRequest) (*model.CustomerPayment, error) {
	docID, err := parseID(invoiceID, "invoice_id")
	if err != nil {
		return nil, err
	}
	actor := parseActor(userID)

	var payment *model.CustomerPayment
	var invoice *model.SalesInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err = s.arInvRepo.FindByIDForUpdate(txCtx, docID)
		if err != nil {
			return notFound(err, "sales invoice")
		}
		if invoice.Status == model.StatusCancelled {
			return apperror.New(apperror.KindNotEligible, "a cancelled invoice cannot be paid")
		}

		amount, paidAt, err := validatePayment(req, invoice.BalanceAmount)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(txCtx, model.DocTypeCustomerPayment, numbering.Period(paidAt))
		if err != nil {
			return err
		}

		payment = &model.CustomerPayment{
			Number:     number,
			InvoiceID:  invoice.ID,
			CustomerID: invoice.CustomerID,
			Amount:     amount,
			Method:     req.Method,
			PaidAt:     paidAt,
			CreatedBy:  actor,
		}
		if err := s.cpayRepo.Create(txCtx, payment); err != nil {
			return fmt.Errorf("failed to create customer payment: %w", err)
		}

		invoice.BalanceAmount = invoice.BalanceAmount.Sub(amount)
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)
		invoice.UpdatedBy = actor
		invoice.Items = nil
		if err := s.arInvRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}

		if err := s.balanceSvc.AddCustomerOutstanding(txCtx, invoice.CustomerID, amount.Neg()); err != nil {
			return err
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionAddPayment,
			model.DocTypeSalesInvoice, invoice.ID.String(),
			map[string]string{"payment": payment.Number, "amount": amount.String()})
	})
	if err != nil {
		return nil, err
	}

	s.publish("payment_added", model.DocTypeSalesInvoice, invoice.DocumentHeader)
	return payment, nil
}

func (s *invoiceService) RemoveCustomerPayment(ctx context.Context, userID, paymentID string) error {
	payID, err := parseID(paymentID, "payment_id")
	if err != nil {
		return err
	}
	actor := parseActor(userID)

	var invoice *model.SalesInvoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		payment, err := s.cpayRepo.FindByID(txCtx, payID)
		if err != nil {
			return notFound(err, "customer payment")
		}

		invoice, err = s.arInvRepo.FindByIDForUpdate(txCtx, payment.InvoiceID)
		if err != nil {
			return notFound(err, "sales invoice")
		}

		if err := s.cpayRepo.Delete(txCtx, payment.ID); err != nil {
			return fmt.Errorf("failed to remove customer payment: %w", err)
		}

		invoice.BalanceAmount = invoice.BalanceAmount.Add(payment.Amount)
		invoice.Status = statemachine.DeriveInvoiceStatus(invoice.TotalAmount, invoice.BalanceAmount)
		invoice.UpdatedBy = actor
		invoice.Items = nil
		if err := s.arInvRepo.Update(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to update invoice balance: %w", err)
		}

		if err := s.balanceSvc.AddCustomerOutstanding(txCtx, invoice.CustomerID, payment.Amount); err != nil {
			return err
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRemovePayment,
			model.DocTypeSalesInvoice, invoice.ID.String(),
			map[string]string{"payment": payment.Number, "amount": payment.Amount.String()})
	})
	if err != nil {
		return err
	}

	s.publish("payment_removed", model.DocTypeSalesInvoice, invoice.DocumentHeader)
	return nil
}

func (s *invoiceService) ListCustomerPayments(ctx context.Context, invoiceID string) ([]model.CustomerPayment, error) {
	docID, err := parseID(invoiceID, "invoice_id")
	if err != nil {
		return nil, err
	}
	return s.cpayRepo.ListByInvoice(ctx, docID)
}
