package service

import (
	"context"

	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"
)

type AddressRequest struct {
	AddressType string `json:"address_type" binding:"required,oneof=BILLING SHIPPING"`
	FullAddress string `json:"full_address" binding:"required"`
	IsDefault   bool   `json:"is_default"`
}

type CreatePartnerRequest struct {
	Name          string           `json:"name" binding:"required"`
	Type          string           `json:"type" binding:"required,oneof=CUSTOMER VENDOR BOTH"`
	TaxCode       string           `json:"tax_code"`
	ContactPerson string           `json:"contact_person"`
	Phone         string           `json:"phone"`
	Email         string           `json:"email" binding:"omitempty,email"`
	Addresses     []AddressRequest `json:"addresses" binding:"omitempty,dive"`
}

type UpdatePartnerRequest struct {
	Name          string `json:"name"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	IsActive      *bool  `json:"is_active"`
}

type CreateProductRequest struct {
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type UpdateProductRequest struct {
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	IsActive  *bool            `json:"is_active"`
}

type CreateWarehouseRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
}

type UpdateWarehouseRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	IsActive *bool  `json:"is_active"`
}

// MasterDataService manages the reference entities documents point at:
// partners, products and warehouses.
type MasterDataService interface {
	CreatePartner(ctx context.Context, req CreatePartnerRequest) (*model.Partner, error)
	GetPartner(ctx context.Context, id string) (*model.Partner, error)
	ListPartners(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error)
	UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest) (*model.Partner, error)
	DeletePartner(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int) ([]model.Product, int64, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*model.Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, page, limit int) ([]model.Warehouse, int64, error)
	UpdateWarehouse(ctx context.Context, id string, req UpdateWarehouseRequest) (*model.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id string) error
}

type masterDataService struct {
	partnerRepo   repository.PartnerRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
}

func NewMasterDataService(
	partnerRepo repository.PartnerRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
) MasterDataService {
	return &masterDataService{
		partnerRepo:   partnerRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
	}
}

func (s *masterDataService) CreatePartner(ctx context.Context, req CreatePartnerRequest) (*model.Partner, error) {
	partner := &model.Partner{
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}
	for _, addr := range req.Addresses {
		partner.Addresses = append(partner.Addresses, model.PartnerAddress{
			AddressType: addr.AddressType,
			FullAddress: addr.FullAddress,
			IsDefault:   addr.IsDefault,
		})
	}
	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *masterDataService) GetPartner(ctx context.Context, id string) (*model.Partner, error) {
	partnerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, notFound(err, "partner")
	}
	return partner, nil
}

func (s *masterDataService) ListPartners(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error) {
	switch partnerType {
	case "", model.PartnerTypeCustomer, model.PartnerTypeVendor, model.PartnerTypeBoth:
	default:
		return nil, 0, apperror.Validation("type", "must be CUSTOMER, VENDOR or BOTH")
	}
	return s.partnerRepo.List(ctx, partnerType, page, limit)
}

func (s *masterDataService) UpdatePartner(ctx context.Context, id string, req UpdatePartnerRequest) (*model.Partner, error) {
	partnerID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return nil, notFound(err, "partner")
	}

	if req.Name != "" {
		partner.Name = req.Name
	}
	if req.TaxCode != "" {
		partner.TaxCode = req.TaxCode
	}
	if req.ContactPerson != "" {
		partner.ContactPerson = req.ContactPerson
	}
	if req.Phone != "" {
		partner.Phone = req.Phone
	}
	if req.Email != "" {
		partner.Email = req.Email
	}
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	partner.Addresses = nil
	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *masterDataService) DeletePartner(ctx context.Context, id string) error {
	partnerID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if _, err := s.partnerRepo.FindByID(ctx, partnerID); err != nil {
		return notFound(err, "partner")
	}
	return s.partnerRepo.Delete(ctx, partnerID)
}

func (s *masterDataService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	if req.UnitPrice.IsNegative() {
		return nil, apperror.Validation("unit_price", "must not be negative")
	}
	unit := req.Unit
	if unit == "" {
		unit = "EA"
	}
	product := &model.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Unit:      unit,
		UnitPrice: req.UnitPrice,
		IsActive:  true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *masterDataService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return product, nil
}

func (s *masterDataService) ListProducts(ctx context.Context, page, limit int) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, page, limit)
}

func (s *masterDataService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*model.Product, error) {
	productID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, apperror.Validation("unit_price", "must not be negative")
		}
		product.UnitPrice = *req.UnitPrice
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *masterDataService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return notFound(err, "product")
	}
	return s.productRepo.Delete(ctx, productID)
}

func (s *masterDataService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest) (*model.Warehouse, error) {
	warehouse := &model.Warehouse{
		Code:     req.Code,
		Name:     req.Name,
		Location: req.Location,
		IsActive: true,
	}
	if err := s.warehouseRepo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (s *masterDataService) GetWarehouse(ctx context.Context, id string) (*model.Warehouse, error) {
	warehouseID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	warehouse, err := s.warehouseRepo.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, notFound(err, "warehouse")
	}
	return warehouse, nil
}

func (s *masterDataService) ListWarehouses(ctx context.Context, page, limit int) ([]model.Warehouse, int64, error) {
	return s.warehouseRepo.List(ctx, page, limit)
}

func (s *masterDataService) UpdateWarehouse(ctx context.Context, id string, req UpdateWarehouseRequest) (*model.Warehouse, error) {
	warehouseID, err := parseID(id, "id")
	if err != nil {
		return nil, err
	}
	warehouse, err := s.warehouseRepo.FindByID(ctx, warehouseID)
	if err != nil {
		return nil, notFound(err, "warehouse")
	}

	if req.Name != "" {
		warehouse.Name = req.Name
	}
	if req.Location != "" {
		warehouse.Location = req.Location
	}
	if req.IsActive != nil {
		warehouse.IsActive = *req.IsActive
	}

	if err := s.warehouseRepo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return warehouse, nil
}

func (s *masterDataService) DeleteWarehouse(ctx context.Context, id string) error {
	warehouseID, err := parseID(id, "id")
	if err != nil {
		return err
	}
	if _, err := s.warehouseRepo.FindByID(ctx, warehouseID); err != nil {
		return notFound(err, "warehouse")
	}
	return s.warehouseRepo.Delete(ctx, warehouseID)
}
