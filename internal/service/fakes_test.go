package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erp-backend/internal/model"
	"erp-backend/internal/numbering"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/logger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func wantDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("amount = %s, want %s", got, want)
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

// memTx runs the function directly. Fakes mutate shared state, so effects of
// a failed transaction are not rolled back; tests assert only on state the
// services check before mutating.
type memTx struct{}

func (memTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memSequenceStore struct {
	mu     sync.Mutex
	issued map[string][]string
	taken  map[string]bool
}

func newMemSequenceStore() *memSequenceStore {
	return &memSequenceStore{issued: map[string][]string{}, taken: map[string]bool{}}
}

func (s *memSequenceStore) IssuedNumbers(_ context.Context, prefix, period string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.issued[prefix+"|"+period]...), nil
}

func (s *memSequenceStore) Claim(_ context.Context, claim *model.DocumentSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := fmt.Sprintf("%s|%s|%d", claim.Prefix, claim.Period, claim.Sequence)
	if s.taken[slot] || s.taken[claim.Number] {
		return numbering.ErrClaimTaken
	}
	s.taken[slot] = true
	s.taken[claim.Number] = true
	s.issued[claim.Prefix+"|"+claim.Period] = append(s.issued[claim.Prefix+"|"+claim.Period], claim.Number)
	return nil
}

// docHooks fills the type-specific gaps of memDocs: id assignment on insert,
// status for list filtering, cloning, and carrying stored lines onto updates
// that detached them before a header-only save.
type docHooks[T any] struct {
	id     func(*T) uuid.UUID
	prep   func(*T)
	status func(*T) string
	clone  func(*T) *T
	carry  func(dst, src *T)
}

// memDocs is a generic in-memory table for header+lines documents.
type memDocs[T any] struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*T
	hooks docHooks[T]
}

func newMemDocs[T any](hooks docHooks[T]) *memDocs[T] {
	return &memDocs[T]{rows: map[uuid.UUID]*T{}, hooks: hooks}
}

func (m *memDocs[T]) Create(_ context.Context, d *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.prep(d)
	m.rows[m.hooks.id(d)] = m.hooks.clone(d)
	return nil
}

func (m *memDocs[T]) FindByID(_ context.Context, id uuid.UUID) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.hooks.clone(d), nil
}

func (m *memDocs[T]) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*T, error) {
	return m.FindByID(ctx, id)
}

func (m *memDocs[T]) List(_ context.Context, status string, page, limit int) ([]T, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []T{}
	for _, d := range m.rows {
		if status == "" || m.hooks.status(d) == status {
			out = append(out, *m.hooks.clone(d))
		}
	}
	return out, int64(len(out)), nil
}

func (m *memDocs[T]) Update(_ context.Context, d *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[m.hooks.id(d)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	next := m.hooks.clone(d)
	m.hooks.carry(next, stored)
	m.rows[m.hooks.id(d)] = next
	return nil
}

func (m *memDocs[T]) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func headerID(h *model.DocumentHeader) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
}

type memRequisitionRepo struct{ *memDocs[model.Requisition] }

func newMemRequisitionRepo() *memRequisitionRepo {
	return &memRequisitionRepo{newMemDocs(docHooks[model.Requisition]{
		id:     func(d *model.Requisition) uuid.UUID { return d.ID },
		status: func(d *model.Requisition) string { return d.Status },
		prep: func(d *model.Requisition) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].RequisitionID = d.ID
			}
		},
		clone: func(d *model.Requisition) *model.Requisition {
			c := *d
			c.Items = append([]model.RequisitionItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.Requisition) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.RequisitionItem(nil), src.Items...)
			}
		},
	})}
}

func (r *memRequisitionRepo) ReplaceItems(_ context.Context, id uuid.UUID, items []model.RequisitionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].RequisitionID = id
	}
	stored.Items = append([]model.RequisitionItem(nil), items...)
	return nil
}

func newMemRFQRepo() *memDocs[model.RFQ] {
	return newMemDocs(docHooks[model.RFQ]{
		id:     func(d *model.RFQ) uuid.UUID { return d.ID },
		status: func(d *model.RFQ) string { return d.Status },
		prep: func(d *model.RFQ) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].RFQID = d.ID
			}
		},
		clone: func(d *model.RFQ) *model.RFQ {
			c := *d
			c.Items = append([]model.RFQItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.RFQ) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.RFQItem(nil), src.Items...)
			}
		},
	})
}

func newMemPQRepo() *memDocs[model.PurchaseQuotation] {
	return newMemDocs(docHooks[model.PurchaseQuotation]{
		id:     func(d *model.PurchaseQuotation) uuid.UUID { return d.ID },
		status: func(d *model.PurchaseQuotation) string { return d.Status },
		prep: func(d *model.PurchaseQuotation) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].QuotationID = d.ID
			}
		},
		clone: func(d *model.PurchaseQuotation) *model.PurchaseQuotation {
			c := *d
			c.Items = append([]model.PurchaseQuotationItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.PurchaseQuotation) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.PurchaseQuotationItem(nil), src.Items...)
			}
		},
	})
}

type memPORepo struct{ *memDocs[model.PurchaseOrder] }

func newMemPORepo() *memPORepo {
	return &memPORepo{newMemDocs(docHooks[model.PurchaseOrder]{
		id:     func(d *model.PurchaseOrder) uuid.UUID { return d.ID },
		status: func(d *model.PurchaseOrder) string { return d.Status },
		prep: func(d *model.PurchaseOrder) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].OrderID = d.ID
			}
		},
		clone: func(d *model.PurchaseOrder) *model.PurchaseOrder {
			c := *d
			c.Items = append([]model.PurchaseOrderItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.PurchaseOrder) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.PurchaseOrderItem(nil), src.Items...)
			}
		},
	})}
}

func (r *memPORepo) UpdateItem(_ context.Context, item *model.PurchaseOrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.rows[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range order.Items {
		if order.Items[i].ID == item.ID {
			order.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newMemGRRepo() *memDocs[model.GoodsReceipt] {
	return newMemDocs(docHooks[model.GoodsReceipt]{
		id:     func(d *model.GoodsReceipt) uuid.UUID { return d.ID },
		status: func(d *model.GoodsReceipt) string { return d.Status },
		prep: func(d *model.GoodsReceipt) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].ReceiptID = d.ID
			}
		},
		clone: func(d *model.GoodsReceipt) *model.GoodsReceipt {
			c := *d
			c.Items = append([]model.GoodsReceiptItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.GoodsReceipt) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.GoodsReceiptItem(nil), src.Items...)
			}
		},
	})
}

func newMemAPInvoiceRepo() *memDocs[model.PurchaseInvoice] {
	return newMemDocs(docHooks[model.PurchaseInvoice]{
		id:     func(d *model.PurchaseInvoice) uuid.UUID { return d.ID },
		status: func(d *model.PurchaseInvoice) string { return d.Status },
		prep: func(d *model.PurchaseInvoice) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].InvoiceID = d.ID
			}
		},
		clone: func(d *model.PurchaseInvoice) *model.PurchaseInvoice {
			c := *d
			c.Items = append([]model.PurchaseInvoiceItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.PurchaseInvoice) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.PurchaseInvoiceItem(nil), src.Items...)
			}
		},
	})
}

func newMemARInvoiceRepo() *memDocs[model.SalesInvoice] {
	return newMemDocs(docHooks[model.SalesInvoice]{
		id:     func(d *model.SalesInvoice) uuid.UUID { return d.ID },
		status: func(d *model.SalesInvoice) string { return d.Status },
		prep: func(d *model.SalesInvoice) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].InvoiceID = d.ID
			}
		},
		clone: func(d *model.SalesInvoice) *model.SalesInvoice {
			c := *d
			c.Items = append([]model.SalesInvoiceItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.SalesInvoice) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.SalesInvoiceItem(nil), src.Items...)
			}
		},
	})
}

func newMemSQRepo() *memDocs[model.SalesQuotation] {
	return newMemDocs(docHooks[model.SalesQuotation]{
		id:     func(d *model.SalesQuotation) uuid.UUID { return d.ID },
		status: func(d *model.SalesQuotation) string { return d.Status },
		prep: func(d *model.SalesQuotation) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].QuotationID = d.ID
			}
		},
		clone: func(d *model.SalesQuotation) *model.SalesQuotation {
			c := *d
			c.Items = append([]model.SalesQuotationItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.SalesQuotation) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.SalesQuotationItem(nil), src.Items...)
			}
		},
	})
}

type memSORepo struct{ *memDocs[model.SalesOrder] }

func newMemSORepo() *memSORepo {
	return &memSORepo{newMemDocs(docHooks[model.SalesOrder]{
		id:     func(d *model.SalesOrder) uuid.UUID { return d.ID },
		status: func(d *model.SalesOrder) string { return d.Status },
		prep: func(d *model.SalesOrder) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].OrderID = d.ID
			}
		},
		clone: func(d *model.SalesOrder) *model.SalesOrder {
			c := *d
			c.Items = append([]model.SalesOrderItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.SalesOrder) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.SalesOrderItem(nil), src.Items...)
			}
		},
	})}
}

func (r *memSORepo) UpdateItem(_ context.Context, item *model.SalesOrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.rows[item.OrderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range order.Items {
		if order.Items[i].ID == item.ID {
			order.Items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newMemDeliveryRepo() *memDocs[model.Delivery] {
	return newMemDocs(docHooks[model.Delivery]{
		id:     func(d *model.Delivery) uuid.UUID { return d.ID },
		status: func(d *model.Delivery) string { return d.Status },
		prep: func(d *model.Delivery) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].DeliveryID = d.ID
			}
		},
		clone: func(d *model.Delivery) *model.Delivery {
			c := *d
			c.Items = append([]model.DeliveryItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.Delivery) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.DeliveryItem(nil), src.Items...)
			}
		},
	})
}

func newMemReturnRepo() *memDocs[model.ReturnOrder] {
	return newMemDocs(docHooks[model.ReturnOrder]{
		id:     func(d *model.ReturnOrder) uuid.UUID { return d.ID },
		status: func(d *model.ReturnOrder) string { return d.Status },
		prep: func(d *model.ReturnOrder) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].ReturnOrderID = d.ID
			}
		},
		clone: func(d *model.ReturnOrder) *model.ReturnOrder {
			c := *d
			c.Items = append([]model.ReturnOrderItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.ReturnOrder) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.ReturnOrderItem(nil), src.Items...)
			}
		},
	})
}

func newMemGoodIssueRepo() *memDocs[model.GoodIssue] {
	return newMemDocs(docHooks[model.GoodIssue]{
		id:     func(d *model.GoodIssue) uuid.UUID { return d.ID },
		status: func(d *model.GoodIssue) string { return d.Status },
		prep: func(d *model.GoodIssue) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].IssueID = d.ID
			}
		},
		clone: func(d *model.GoodIssue) *model.GoodIssue {
			c := *d
			c.Items = append([]model.GoodIssueItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.GoodIssue) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.GoodIssueItem(nil), src.Items...)
			}
		},
	})
}

type memCreditNoteRepo struct{ *memDocs[model.CreditNote] }

func newMemCreditNoteRepo() *memCreditNoteRepo {
	return &memCreditNoteRepo{newMemDocs(docHooks[model.CreditNote]{
		id:     func(d *model.CreditNote) uuid.UUID { return d.ID },
		status: func(d *model.CreditNote) string { return d.Status },
		prep: func(d *model.CreditNote) {
			headerID(&d.DocumentHeader)
			for i := range d.Items {
				if d.Items[i].ID == uuid.Nil {
					d.Items[i].ID = uuid.New()
				}
				d.Items[i].CreditNoteID = d.ID
			}
		},
		clone: func(d *model.CreditNote) *model.CreditNote {
			c := *d
			c.Items = append([]model.CreditNoteItem(nil), d.Items...)
			return &c
		},
		carry: func(dst, src *model.CreditNote) {
			if len(dst.Items) == 0 {
				dst.Items = append([]model.CreditNoteItem(nil), src.Items...)
			}
		},
	})}
}

func (r *memCreditNoteRepo) SumConfirmedByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, note := range r.rows {
		if note.SourceInvoiceID == invoiceID && note.Status == model.StatusConfirmed {
			sum = sum.Add(note.TotalAmount)
		}
	}
	return sum, nil
}

type memVendorPaymentRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.VendorPayment
	deleted map[uuid.UUID]bool
}

func newMemVendorPaymentRepo() *memVendorPaymentRepo {
	return &memVendorPaymentRepo{rows: map[uuid.UUID]*model.VendorPayment{}, deleted: map[uuid.UUID]bool{}}
}

func (r *memVendorPaymentRepo) Create(_ context.Context, p *model.VendorPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	r.rows[p.ID] = &stored
	return nil
}

func (r *memVendorPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.VendorPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || r.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (r *memVendorPaymentRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]model.VendorPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.VendorPayment{}
	for id, p := range r.rows {
		if p.InvoiceID == invoiceID && !r.deleted[id] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memVendorPaymentRepo) SumActiveByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for id, p := range r.rows {
		if p.InvoiceID == invoiceID && !r.deleted[id] {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memVendorPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted[id] = true
	return nil
}

type memCustomerPaymentRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*model.CustomerPayment
	deleted map[uuid.UUID]bool
}

func newMemCustomerPaymentRepo() *memCustomerPaymentRepo {
	return &memCustomerPaymentRepo{rows: map[uuid.UUID]*model.CustomerPayment{}, deleted: map[uuid.UUID]bool{}}
}

func (r *memCustomerPaymentRepo) Create(_ context.Context, p *model.CustomerPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	r.rows[p.ID] = &stored
	return nil
}

func (r *memCustomerPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CustomerPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || r.deleted[id] {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (r *memCustomerPaymentRepo) ListByInvoice(_ context.Context, invoiceID uuid.UUID) ([]model.CustomerPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.CustomerPayment{}
	for id, p := range r.rows {
		if p.InvoiceID == invoiceID && !r.deleted[id] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memCustomerPaymentRepo) SumActiveByInvoice(_ context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for id, p := range r.rows {
		if p.InvoiceID == invoiceID && !r.deleted[id] {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *memCustomerPaymentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted[id] = true
	return nil
}

type stockKey struct {
	warehouseID uuid.UUID
	productID   uuid.UUID
}

type memStockRepo struct {
	mu        sync.Mutex
	stocks    map[stockKey]*model.WarehouseStock
	movements []model.StockMovement
	pending   map[stockKey]decimal.Decimal
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{stocks: map[stockKey]*model.WarehouseStock{}, pending: map[stockKey]decimal.Decimal{}}
}

func (r *memStockRepo) setPending(warehouseID, productID uuid.UUID, qty decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[stockKey{warehouseID, productID}] = qty
}

func (r *memStockRepo) setQuantity(warehouseID, productID uuid.UUID, qty decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey{warehouseID, productID}
	stock, ok := r.stocks[key]
	if !ok {
		stock = &model.WarehouseStock{ID: uuid.New(), WarehouseID: warehouseID, ProductID: productID}
		r.stocks[key] = stock
	}
	stock.Quantity = qty
}

func (r *memStockRepo) FindStock(_ context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stock, ok := r.stocks[stockKey{warehouseID, productID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *stock
	return &c, nil
}

func (r *memStockRepo) FindStockForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error) {
	return r.FindStock(ctx, warehouseID, productID)
}

func (r *memStockRepo) CreateStock(_ context.Context, stock *model.WarehouseStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	stored := *stock
	r.stocks[stockKey{stock.WarehouseID, stock.ProductID}] = &stored
	return nil
}

func (r *memStockRepo) SaveStock(_ context.Context, stock *model.WarehouseStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *stock
	r.stocks[stockKey{stock.WarehouseID, stock.ProductID}] = &stored
	return nil
}

func (r *memStockRepo) ListStocks(_ context.Context, warehouseID uuid.UUID, page, limit int) ([]model.WarehouseStock, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.WarehouseStock{}
	for _, stock := range r.stocks {
		if warehouseID == uuid.Nil || stock.WarehouseID == warehouseID {
			out = append(out, *stock)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memStockRepo) CreateMovement(_ context.Context, mv *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mv.ID == uuid.Nil {
		mv.ID = uuid.New()
	}
	r.movements = append(r.movements, *mv)
	return nil
}

func (r *memStockRepo) SumMovements(_ context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, mv := range r.movements {
		if mv.WarehouseID == warehouseID && mv.ProductID == productID {
			sum = sum.Add(mv.Quantity)
		}
	}
	return sum, nil
}

func (r *memStockRepo) ListMovements(_ context.Context, warehouseID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.StockMovement{}
	for _, mv := range r.movements {
		if (warehouseID == uuid.Nil || mv.WarehouseID == warehouseID) &&
			(productID == uuid.Nil || mv.ProductID == productID) {
			out = append(out, mv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memStockRepo) PendingOutflow(_ context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending, ok := r.pending[stockKey{warehouseID, productID}]
	if !ok {
		return decimal.Zero, nil
	}
	return pending, nil
}

type memBalanceRepo struct {
	mu             sync.Mutex
	customers      map[uuid.UUID]*model.CustomerBalance
	vendors        map[uuid.UUID]*model.VendorBalance
	customerLedger map[uuid.UUID]decimal.Decimal
	vendorLedger   map[uuid.UUID]decimal.Decimal
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{
		customers:      map[uuid.UUID]*model.CustomerBalance{},
		vendors:        map[uuid.UUID]*model.VendorBalance{},
		customerLedger: map[uuid.UUID]decimal.Decimal{},
		vendorLedger:   map[uuid.UUID]decimal.Decimal{},
	}
}

func (r *memBalanceRepo) FindCustomerForUpdate(_ context.Context, customerID uuid.UUID) (*model.CustomerBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.customers[customerID]
	if !ok {
		b = &model.CustomerBalance{ID: uuid.New(), CustomerID: customerID, OutstandingBalance: decimal.Zero}
		r.customers[customerID] = b
	}
	c := *b
	return &c, nil
}

func (r *memBalanceRepo) FindVendorForUpdate(_ context.Context, vendorID uuid.UUID) (*model.VendorBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.vendors[vendorID]
	if !ok {
		b = &model.VendorBalance{ID: uuid.New(), VendorID: vendorID, OutstandingBalance: decimal.Zero}
		r.vendors[vendorID] = b
	}
	c := *b
	return &c, nil
}

func (r *memBalanceRepo) FindCustomer(_ context.Context, customerID uuid.UUID) (*model.CustomerBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.customers[customerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *b
	return &c, nil
}

func (r *memBalanceRepo) FindVendor(_ context.Context, vendorID uuid.UUID) (*model.VendorBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.vendors[vendorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *b
	return &c, nil
}

func (r *memBalanceRepo) SaveCustomer(_ context.Context, b *model.CustomerBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *b
	r.customers[b.CustomerID] = &stored
	return nil
}

func (r *memBalanceRepo) SaveVendor(_ context.Context, b *model.VendorBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *b
	r.vendors[b.VendorID] = &stored
	return nil
}

func (r *memBalanceRepo) ListCustomers(_ context.Context, page, limit int) ([]model.CustomerBalance, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.CustomerBalance{}
	for _, b := range r.customers {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *memBalanceRepo) ListVendors(_ context.Context, page, limit int) ([]model.VendorBalance, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.VendorBalance{}
	for _, b := range r.vendors {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *memBalanceRepo) SumCustomerOutstanding(_ context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, ok := r.customerLedger[customerID]
	if !ok {
		return decimal.Zero, nil
	}
	return sum, nil
}

func (r *memBalanceRepo) SumVendorOutstanding(_ context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, ok := r.vendorLedger[vendorID]
	if !ok {
		return decimal.Zero, nil
	}
	return sum, nil
}

func (r *memBalanceRepo) CustomerIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uuid.UUID{}
	for id := range r.customers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memBalanceRepo) VendorIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []uuid.UUID{}
	for id := range r.vendors {
		ids = append(ids, id)
	}
	return ids, nil
}

// setLedger aligns the recomputation source with the given sums, standing in
// for the invoice/payment tables the SQL implementation derives them from.
func (r *memBalanceRepo) setCustomerLedger(customerID uuid.UUID, sum decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customerLedger[customerID] = sum
}

func (r *memBalanceRepo) setVendorLedger(vendorID uuid.UUID, sum decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vendorLedger[vendorID] = sum
}

type memProductRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{rows: map[uuid.UUID]*model.Product{}}
}

func (r *memProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	stored := *p
	r.rows[p.ID] = &stored
	return nil
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.rows[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memProductRepo) List(_ context.Context, page, limit int) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Product{}
	for _, p := range r.rows {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *memProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *p
	r.rows[p.ID] = &stored
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func newMemAuditRepo() *memAuditRepo { return &memAuditRepo{} }

func (r *memAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, action, entityType, entityID string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.AuditLog{}
	for _, e := range r.entries {
		if action != "" && e.Action != action {
			continue
		}
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if entityID != "" && e.EntityID != entityID {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *memAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type memUserRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{rows: map[uuid.UUID]*model.User{}} }

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	stored := *u
	r.rows[u.ID] = &stored
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) List(_ context.Context, page, limit int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.User{}
	for _, u := range r.rows {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *u
	r.rows[u.ID] = &stored
	return nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []ws.DocumentEvent
}

func (r *eventRecorder) PublishDocumentEvent(ev ws.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Event)
	}
	return out
}

// testEnv wires every service over the in-memory fakes, mirroring the
// dependency graph assembled in main.
type testEnv struct {
	reqRepo     *memRequisitionRepo
	rfqRepo     *memDocs[model.RFQ]
	pqRepo      *memDocs[model.PurchaseQuotation]
	poRepo      *memPORepo
	grRepo      *memDocs[model.GoodsReceipt]
	apInvRepo   *memDocs[model.PurchaseInvoice]
	arInvRepo   *memDocs[model.SalesInvoice]
	sqRepo      *memDocs[model.SalesQuotation]
	soRepo      *memSORepo
	deliRepo    *memDocs[model.Delivery]
	retRepo     *memDocs[model.ReturnOrder]
	giRepo      *memDocs[model.GoodIssue]
	cnRepo      *memCreditNoteRepo
	vpayRepo    *memVendorPaymentRepo
	cpayRepo    *memCustomerPaymentRepo
	stockRepo   *memStockRepo
	balanceRepo *memBalanceRepo
	productRepo *memProductRepo
	auditRepo   *memAuditRepo
	events      *eventRecorder

	stock       StockService
	balance     BalanceService
	procurement ProcurementService
	receiving   ReceivingService
	sales       SalesService
	returns     ReturnsService
	invoices    InvoiceService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		reqRepo:     newMemRequisitionRepo(),
		rfqRepo:     newMemRFQRepo(),
		pqRepo:      newMemPQRepo(),
		poRepo:      newMemPORepo(),
		grRepo:      newMemGRRepo(),
		apInvRepo:   newMemAPInvoiceRepo(),
		arInvRepo:   newMemARInvoiceRepo(),
		sqRepo:      newMemSQRepo(),
		soRepo:      newMemSORepo(),
		deliRepo:    newMemDeliveryRepo(),
		retRepo:     newMemReturnRepo(),
		giRepo:      newMemGoodIssueRepo(),
		cnRepo:      newMemCreditNoteRepo(),
		vpayRepo:    newMemVendorPaymentRepo(),
		cpayRepo:    newMemCustomerPaymentRepo(),
		stockRepo:   newMemStockRepo(),
		balanceRepo: newMemBalanceRepo(),
		productRepo: newMemProductRepo(),
		auditRepo:   newMemAuditRepo(),
		events:      &eventRecorder{},
	}

	log := testLogger()
	tx := memTx{}
	numbers := numbering.NewGenerator(newMemSequenceStore(), log)

	env.stock = NewStockService(env.stockRepo, env.auditRepo, tx, log)
	env.balance = NewBalanceService(env.balanceRepo, env.auditRepo, tx, log)
	env.procurement = NewProcurementService(env.reqRepo, env.rfqRepo, env.pqRepo, env.poRepo,
		env.productRepo, env.auditRepo, tx, numbers, env.events)
	env.receiving = NewReceivingService(env.grRepo, env.poRepo, env.apInvRepo,
		env.auditRepo, tx, numbers, env.stock, env.balance, env.events)
	env.sales = NewSalesService(env.sqRepo, env.soRepo, env.deliRepo, env.giRepo, env.arInvRepo,
		env.productRepo, env.auditRepo, tx, numbers, env.stock, env.balance, env.events)
	env.returns = NewReturnsService(env.retRepo, env.cnRepo, env.arInvRepo,
		env.auditRepo, tx, numbers, env.stock, env.balance, env.events)
	env.invoices = NewInvoiceService(env.apInvRepo, env.arInvRepo, env.vpayRepo, env.cpayRepo,
		env.auditRepo, tx, numbers, env.balance, env.events)

	return env
}

func (e *testEnv) addProduct(t *testing.T, sku, price string) model.Product {
	t.Helper()
	p := model.Product{
		SKU:       sku,
		Name:      "product " + sku,
		Unit:      "EA",
		UnitPrice: dec(price),
		IsActive:  true,
	}
	if err := e.productRepo.Create(context.Background(), &p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func (e *testEnv) vendorOutstanding(t *testing.T, vendorID uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := e.balanceRepo.FindVendor(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("vendor balance: %v", err)
	}
	return b.OutstandingBalance
}

func (e *testEnv) customerOutstanding(t *testing.T, customerID uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := e.balanceRepo.FindCustomer(context.Background(), customerID)
	if err != nil {
		t.Fatalf("customer balance: %v", err)
	}
	return b.OutstandingBalance
}

func (e *testEnv) onHand(t *testing.T, warehouseID, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	avail, err := e.stock.Available(context.Background(), warehouseID, productID)
	if err != nil {
		t.Fatalf("available stock: %v", err)
	}
	return avail.OnHand
}
