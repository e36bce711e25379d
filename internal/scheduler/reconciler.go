package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"erp-backend/internal/service"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/logger"
)

// Reconciler periodically re-derives every cached stock quantity and partner
// balance from their source records, repairing divergences and alerting
// connected clients when one is found.
type Reconciler struct {
	stockSvc   service.StockService
	balanceSvc service.BalanceService
	hub        *ws.Hub
	log        *logger.Logger
	cron       *cron.Cron
}

func NewReconciler(stockSvc service.StockService, balanceSvc service.BalanceService, hub *ws.Hub, log *logger.Logger) *Reconciler {
	return &Reconciler{
		stockSvc:   stockSvc,
		balanceSvc: balanceSvc,
		hub:        hub,
		log:        log,
		cron:       cron.New(),
	}
}

// Start schedules the sweep with the given cron spec (e.g. "0 3 * * *") and
// kicks off the cron loop.
func (r *Reconciler) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, r.Sweep); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info().Str("spec", spec).Msg("reconciliation sweep scheduled")
	return nil
}

func (r *Reconciler) Stop() {
	r.cron.Stop()
}

// Sweep runs one full reconciliation pass over stocks and balances.
func (r *Reconciler) Sweep() {
	ctx := context.Background()
	start := time.Now()

	stockResults, err := r.stockSvc.RecomputeAll(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("stock reconciliation sweep failed")
	}
	for _, res := range stockResults {
		r.alert("stock", res.WarehouseID+"/"+res.ProductID)
	}

	balanceResults, err := r.balanceSvc.RecomputeAll(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("balance reconciliation sweep failed")
	}
	for _, res := range balanceResults {
		r.alert(res.Side, res.PartnerID)
	}

	r.log.Info().
		Int("stock_mismatches", len(stockResults)).
		Int("balance_mismatches", len(balanceResults)).
		Dur("elapsed", time.Since(start)).
		Msg("reconciliation sweep finished")
}

func (r *Reconciler) alert(kind, id string) {
	if r.hub == nil {
		return
	}
	r.hub.PublishDocumentEvent(ws.DocumentEvent{
		Event:        "integrity_repaired",
		DocumentType: kind,
		DocumentID:   id,
	})
}
