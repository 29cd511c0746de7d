package worker

import (
	"context"
	"time"

	"melodia/internal/repository"

	"github.com/rs/zerolog/log"
)

const retryBatchSize = 20

// RetryCron periodically re-enqueues invoices whose PDF emission failed and
// whose backoff window has elapsed. It also catches jobs lost to a crash
// between payment commit and enqueue.
type RetryCron struct {
	invoices   repository.InvoiceRepository
	dispatcher *Dispatcher
	interval   time.Duration
}

func NewRetryCron(invoices repository.InvoiceRepository, dispatcher *Dispatcher) *RetryCron {
	return &RetryCron{invoices: invoices, dispatcher: dispatcher, interval: time.Minute}
}

// Start runs the cron until ctx is cancelled.
func (c *RetryCron) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tick(ctx)
			}
		}
	}()
}

func (c *RetryCron) tick(ctx context.Context) {
	pending, err := c.invoices.ListPendingRetries(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("cron de reintentos: consulta fallida")
		return
	}
	for _, inv := range pending {
		if err := c.dispatcher.InvoiceCreated(ctx, inv.ID); err != nil {
			log.Error().Err(err).Str("factura", inv.InvoiceNumber).
				Msg("cron de reintentos: no se pudo encolar")
			continue
		}
		log.Info().Str("factura", inv.InvoiceNumber).Int("intento", inv.RetryCount).
			Msg("factura re-encolada para emisión")
	}
}
