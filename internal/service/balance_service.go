package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/logger"
)

// BalanceRecomputeResult compares a cached outstanding balance against the
// value recomputed from invoices, payments and credit notes.
type BalanceRecomputeResult struct {
	PartnerID string          `json:"partner_id"`
	Side      string          `json:"side"` // customer or vendor
	Cached    decimal.Decimal `json:"cached"`
	Computed  decimal.Decimal `json:"computed"`
	Mismatch  bool            `json:"mismatch"`
	Repaired  bool            `json:"repaired"`
}

type BalanceService interface {
	// AddCustomerOutstanding and AddVendorOutstanding apply a signed delta to
	// the cached balance inside the caller's transaction. Invoice issuance
	// adds the total; payments and credit notes subtract.
	AddCustomerOutstanding(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error
	AddVendorOutstanding(ctx context.Context, vendorID uuid.UUID, delta decimal.Decimal) error

	GetCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error)
	GetVendor(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error)
	ListCustomers(ctx context.Context, page, limit int) ([]model.CustomerBalance, int64, error)
	ListVendors(ctx context.Context, page, limit int) ([]model.VendorBalance, int64, error)

	RecomputeCustomer(ctx context.Context, customerID uuid.UUID, userID string, repair bool) (*BalanceRecomputeResult, error)
	RecomputeVendor(ctx context.Context, vendorID uuid.UUID, userID string, repair bool) (*BalanceRecomputeResult, error)
	RecomputeAll(ctx context.Context) ([]BalanceRecomputeResult, error)
}

type balanceService struct {
	balanceRepo repository.BalanceRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	log         *logger.Logger
}

func NewBalanceService(
	balanceRepo repository.BalanceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logger.Logger,
) BalanceService {
	return &balanceService{
		balanceRepo: balanceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		log:         log,
	}
}

func (s *balanceService) AddCustomerOutstanding(ctx context.Context, customerID uuid.UUID, delta decimal.Decimal) error {
	b, err := s.balanceRepo.FindCustomerForUpdate(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to lock customer balance: %w", err)
	}
	b.OutstandingBalance = b.OutstandingBalance.Add(delta)
	if err := s.balanceRepo.SaveCustomer(ctx, b); err != nil {
		return fmt.Errorf("failed to update customer balance: %w", err)
	}
	return nil
}

func (s *balanceService) AddVendorOutstanding(ctx context.Context, vendorID uuid.UUID, delta decimal.Decimal) error {
	b, err := s.balanceRepo.FindVendorForUpdate(ctx, vendorID)
	if err != nil {
		return fmt.Errorf("failed to lock vendor balance: %w", err)
	}
	b.OutstandingBalance = b.OutstandingBalance.Add(delta)
	if err := s.balanceRepo.SaveVendor(ctx, b); err != nil {
		return fmt.Errorf("failed to update vendor balance: %w", err)
	}
	return nil
}

func (s *balanceService) GetCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error) {
	b, err := s.balanceRepo.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "customer balance")
	}
	return b, nil
}

func (s *balanceService) GetVendor(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error) {
	b, err := s.balanceRepo.FindVendor(ctx, vendorID)
	if err != nil {
		return nil, notFound(err, "vendor balance")
	}
	return b, nil
}

func (s *balanceService) ListCustomers(ctx context.Context, page, limit int) ([]model.CustomerBalance, int64, error) {
	return s.balanceRepo.ListCustomers(ctx, page, limit)
}

func (s *balanceService) ListVendors(ctx context.Context, page, limit int) ([]model.VendorBalance, int64, error) {
	return s.balanceRepo.ListVendors(ctx, page, limit)
}

func (s *balanceService) RecomputeCustomer(ctx context.Context, customerID uuid.UUID, userID string, repair bool) (*BalanceRecomputeResult, error) {
	var result *BalanceRecomputeResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.balanceRepo.FindCustomerForUpdate(txCtx, customerID)
		if err != nil {
			return fmt.Errorf("failed to lock customer balance: %w", err)
		}
		computed, err := s.balanceRepo.SumCustomerOutstanding(txCtx, customerID)
		if err != nil {
			return fmt.Errorf("failed to recompute customer balance: %w", err)
		}

		result = &BalanceRecomputeResult{
			PartnerID: customerID.String(),
			Side:      "customer",
			Cached:    b.OutstandingBalance,
			Computed:  computed,
			Mismatch:  !b.OutstandingBalance.Equal(computed),
		}
		if !result.Mismatch {
			return nil
		}

		s.log.Error().
			Str("customer_id", customerID.String()).
			Str("cached", b.OutstandingBalance.String()).
			Str("computed", computed.String()).
			Msg("customer balance cache diverged from ledger")

		actor := parseActor(userID)
		if err := writeAudit(txCtx, s.auditRepo, actor, model.ActionIntegrityMismatch,
			"customer_balance", customerID.String(), result); err != nil {
			return err
		}

		if !repair {
			return apperror.Newf(apperror.KindIntegrityMismatch,
				"customer balance cache %s diverged from ledger sum %s", b.OutstandingBalance, computed)
		}

		b.OutstandingBalance = computed
		if err := s.balanceRepo.SaveCustomer(txCtx, b); err != nil {
			return fmt.Errorf("failed to repair customer balance: %w", err)
		}
		result.Repaired = true

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRecomputeBalance,
			"customer_balance", customerID.String(), result)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *balanceService) RecomputeVendor(ctx context.Context, vendorID uuid.UUID, userID string, repair bool) (*BalanceRecomputeResult, error) {
	var result *BalanceRecomputeResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.balanceRepo.FindVendorForUpdate(txCtx, vendorID)
		if err != nil {
			return fmt.Errorf("failed to lock vendor balance: %w", err)
		}
		computed, err := s.balanceRepo.SumVendorOutstanding(txCtx, vendorID)
		if err != nil {
			return fmt.Errorf("failed to recompute vendor balance: %w", err)
		}

		result = &BalanceRecomputeResult{
			PartnerID: vendorID.String(),
			Side:      "vendor",
			Cached:    b.OutstandingBalance,
			Computed:  computed,
			Mismatch:  !b.OutstandingBalance.Equal(computed),
		}
		if !result.Mismatch {
			return nil
		}

		s.log.Error().
			Str("vendor_id", vendorID.String()).
			Str("cached", b.OutstandingBalance.String()).
			Str("computed", computed.String()).
			Msg("vendor balance cache diverged from ledger")

		actor := parseActor(userID)
		if err := writeAudit(txCtx, s.auditRepo, actor, model.ActionIntegrityMismatch,
			"vendor_balance", vendorID.String(), result); err != nil {
			return err
		}

		if !repair {
			return apperror.Newf(apperror.KindIntegrityMismatch,
				"vendor balance cache %s diverged from ledger sum %s", b.OutstandingBalance, computed)
		}

		b.OutstandingBalance = computed
		if err := s.balanceRepo.SaveVendor(txCtx, b); err != nil {
			return fmt.Errorf("failed to repair vendor balance: %w", err)
		}
		result.Repaired = true

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRecomputeBalance,
			"vendor_balance", vendorID.String(), result)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// RecomputeAll sweeps every cached balance, repairing divergences. Used by
// the reconciliation scheduler.
func (s *balanceService) RecomputeAll(ctx context.Context) ([]BalanceRecomputeResult, error) {
	var results []BalanceRecomputeResult

	customerIDs, err := s.balanceRepo.CustomerIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer balances: %w", err)
	}
	for _, id := range customerIDs {
		res, err := s.RecomputeCustomer(ctx, id, "", true)
		if err != nil {
			return results, err
		}
		if res != nil && res.Mismatch {
			results = append(results, *res)
		}
	}

	vendorIDs, err := s.balanceRepo.VendorIDs(ctx)
	if err != nil {
		return results, fmt.Errorf("failed to list vendor balances: %w", err)
	}
	for _, id := range vendorIDs {
		res, err := s.RecomputeVendor(ctx, id, "", true)
		if err != nil {
			return results, err
		}
		if res != nil && res.Mismatch {
			results = append(results, *res)
		}
	}

	return results, nil
}
