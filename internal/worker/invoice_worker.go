package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"melodia/internal/config"
	"melodia/internal/infra"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/rs/zerolog/log"
)

// maxInvoiceRetries bounds PDF emission attempts before the invoice is
// marked error and the job goes to the DLQ.
const maxInvoiceRetries = 5

// WorkerHandlers implements the Handlers contract against the real
// dependencies: DB repositories, the PDF renderer and the mailer.
type WorkerHandlers struct {
	invoices   repository.InvoiceRepository
	orders     repository.OrderRepository
	users      repository.UserRepository
	mailer     *infra.Mailer
	dispatcher *Dispatcher
	cfg        *config.Config
}

func NewWorkerHandlers(
	invoices repository.InvoiceRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	mailer *infra.Mailer,
	dispatcher *Dispatcher,
	cfg *config.Config,
) *WorkerHandlers {
	return &WorkerHandlers{
		invoices:   invoices,
		orders:     orders,
		users:      users,
		mailer:     mailer,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// HandleInvoice renders the invoice PDF, marks the invoice emitida and
// queues the email with the attachment. Failures schedule a retry with
// exponential backoff; after maxInvoiceRetries the invoice is marked error
// and the job is surfaced through the DLQ.
func (h *WorkerHandlers) HandleInvoice(ctx context.Context, job InvoiceJob) error {
	inv, err := h.invoices.FindByID(ctx, job.InvoiceID)
	if err != nil {
		return fmt.Errorf("factura %s: %w", job.InvoiceID, err)
	}
	if inv.Estado == "emitida" {
		// Re-delivery after a crash between emit and ack. Nothing to do.
		return nil
	}

	order, err := h.orders.FindByID(ctx, inv.OrderID)
	if err != nil {
		return fmt.Errorf("orden de la factura %s: %w", inv.InvoiceNumber, err)
	}

	pdfPath, err := infra.GenerateInvoicePDF(order, inv, h.cfg.PDFStoragePath)
	if err != nil {
		return h.scheduleRetry(ctx, inv, err)
	}

	// Stored relative to PDF_STORAGE_PATH so the storage dir can move.
	rel := filepath.Base(pdfPath)
	inv.PDFPath = &rel
	inv.Estado = "emitida"
	inv.NextRetryAt = nil
	inv.LastError = nil
	if err := h.invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("actualizar factura %s: %w", inv.InvoiceNumber, err)
	}
	log.Info().Str("factura", inv.InvoiceNumber).Str("pdf", pdfPath).Msg("factura emitida")

	if err := h.dispatcher.push(ctx, QueueEmails, EmailJob{Kind: EmailInvoice, OrderID: order.ID}); err != nil {
		log.Error().Err(err).Str("factura", inv.InvoiceNumber).
			Msg("no se pudo encolar el correo de la factura")
	}
	return nil
}

func (h *WorkerHandlers) scheduleRetry(ctx context.Context, inv *model.Invoice, cause error) error {
	inv.RetryCount++
	msg := cause.Error()
	inv.LastError = &msg

	if inv.RetryCount >= maxInvoiceRetries {
		inv.Estado = "error"
		inv.NextRetryAt = nil
		if err := h.invoices.Update(ctx, inv); err != nil {
			log.Error().Err(err).Str("factura", inv.InvoiceNumber).Msg("no se pudo marcar la factura en error")
		}
		return fmt.Errorf("factura %s agotó reintentos: %w", inv.InvoiceNumber, cause)
	}

	// 5m, 10m, 20m, 40m
	backoff := 5 * time.Minute * (1 << (inv.RetryCount - 1))
	next := time.Now().Add(backoff)
	inv.NextRetryAt = &next
	if err := h.invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("programar reintento de %s: %w", inv.InvoiceNumber, err)
	}
	log.Warn().Str("factura", inv.InvoiceNumber).Int("intento", inv.RetryCount).
		Time("proximo", next).Err(cause).Msg("emisión de factura fallida, reintento programado")
	return nil
}
