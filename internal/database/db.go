package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"erp-backend/internal/model"
)

// NewConnection opens a GORM connection pool and migrates the schema.
// TranslateError is required so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the number generator relies on.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Partner{},
		&model.PartnerAddress{},
		&model.Product{},
		&model.Warehouse{},
		&model.DocumentSequence{},
		&model.Requisition{},
		&model.RequisitionItem{},
		&model.RFQ{},
		&model.RFQItem{},
		&model.PurchaseQuotation{},
		&model.PurchaseQuotationItem{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.GoodsReceipt{},
		&model.GoodsReceiptItem{},
		&model.PurchaseInvoice{},
		&model.PurchaseInvoiceItem{},
		&model.VendorPayment{},
		&model.SalesQuotation{},
		&model.SalesQuotationItem{},
		&model.SalesOrder{},
		&model.SalesOrderItem{},
		&model.Delivery{},
		&model.DeliveryItem{},
		&model.SalesInvoice{},
		&model.SalesInvoiceItem{},
		&model.CustomerPayment{},
		&model.ReturnOrder{},
		&model.ReturnOrderItem{},
		&model.GoodIssue{},
		&model.GoodIssueItem{},
		&model.CreditNote{},
		&model.CreditNoteItem{},
		&model.WarehouseStock{},
		&model.StockMovement{},
		&model.CustomerBalance{},
		&model.VendorBalance{},
		&model.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
