package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/events"
	"github.com/spec-kit/servicehub-platform/internal/repository"
)

// sweepableStatuses are the invoice states an overdue sweep considers.
// DRAFT invoices are never overdue; PAID and CANCELLED are final.
var sweepableStatuses = []domain.InvoiceStatus{
	domain.InvoiceStatusSent,
	domain.InvoiceStatusPartiallyPaid,
}

// OverdueWorker periodically flags invoices whose due date has passed.
type OverdueWorker struct {
	invoices   repository.InvoiceRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration
	now        func() time.Time
}

// NewOverdueWorker constructs the worker. interval <= 0 falls back to hourly.
func NewOverdueWorker(invoices repository.InvoiceRepository, dispatcher events.Dispatcher, logger *zap.Logger, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueWorker{
		invoices:   invoices,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		now:        time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (w *OverdueWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("overdue worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// SweepOnce runs a single sweep and reports how many invoices were flagged.
func (w *OverdueWorker) SweepOnce(ctx context.Context) (int, error) {
	return w.markOverdue(ctx)
}

func (w *OverdueWorker) sweep(ctx context.Context) {
	flagged, err := w.markOverdue(ctx)
	if err != nil {
		w.logger.Error("overdue sweep failed", zap.Error(err))
		return
	}
	if flagged > 0 {
		w.logger.Info("flagged overdue invoices", zap.Int("count", flagged))
	}
}

func (w *OverdueWorker) markOverdue(ctx context.Context) (int, error) {
	due, err := w.invoices.ListDueBefore(ctx, w.now(), sweepableStatuses)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, invoice := range due {
		if err := w.invoices.UpdateStatus(ctx, invoice.ID, domain.InvoiceStatusOverdue); err != nil {
			w.logger.Error("unable to mark invoice overdue",
				zap.String("invoice_id", invoice.ID), zap.Error(err))
			continue
		}
		flagged++
		if w.dispatcher != nil {
			_ = w.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventInvoiceOverdue,
				EntityID:  invoice.ID,
				Timestamp: w.now(),
				Payload: events.InvoiceStatusPayload{
					Reference: invoice.Reference,
					OldStatus: invoice.Status,
					NewStatus: domain.InvoiceStatusOverdue,
				},
			})
		}
	}
	return flagged, nil
}
