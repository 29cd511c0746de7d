package worker

import (
	"context"
	"fmt"
	"path/filepath"

	"melodia/internal/model"

	"github.com/rs/zerolog/log"
)

// HandleEmail composes and sends one notification. Email is best-effort:
// a returned error sends the job to the DLQ, it is never retried inline.
func (h *WorkerHandlers) HandleEmail(ctx context.Context, job EmailJob) error {
	order, err := h.orders.FindByID(ctx, job.OrderID)
	if err != nil {
		return fmt.Errorf("orden %s: %w", job.OrderID, err)
	}
	user, err := h.users.FindByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("usuario de la orden %s: %w", order.OrderNumber, err)
	}

	subject, body, attachment := h.compose(ctx, job, order, user.Name)
	if err := h.mailer.Send(user.Email, subject, body, attachment); err != nil {
		return fmt.Errorf("enviar correo %s a %s: %w", job.Kind, user.Email, err)
	}
	log.Info().Str("tipo", job.Kind).Str("orden", order.OrderNumber).Msg("correo enviado")
	return nil
}

func (h *WorkerHandlers) compose(ctx context.Context, job EmailJob, order *model.Order, name string) (subject, body, attachment string) {
	switch job.Kind {
	case EmailOrderCreated:
		subject = fmt.Sprintf("Confirmación de orden %s", order.OrderNumber)
		body = fmt.Sprintf(
			"Hola %s,\n\nRecibimos tu orden %s por un total de %s %s.\n"+
				"Te avisaremos cuando el pago sea confirmado.\n\nMelodía Records",
			name, order.OrderNumber, order.Total.StringFixed(2), order.Currency)

	case EmailOrderStatus:
		subject = fmt.Sprintf("Tu orden %s está %s", order.OrderNumber, job.Status)
		body = fmt.Sprintf(
			"Hola %s,\n\nTu orden %s cambió de estado: %s.\n\nMelodía Records",
			name, order.OrderNumber, job.Status)

	case EmailInvoice:
		subject = fmt.Sprintf("Factura de tu orden %s", order.OrderNumber)
		body = fmt.Sprintf(
			"Hola %s,\n\nAdjuntamos la factura de tu orden %s.\n"+
				"Gracias por tu compra.\n\nMelodía Records",
			name, order.OrderNumber)
		if inv, err := h.invoices.FindByOrderID(ctx, order.ID); err == nil && inv.PDFPath != nil {
			attachment = filepath.Join(h.cfg.PDFStoragePath, *inv.PDFPath)
		}

	default:
		subject = fmt.Sprintf("Novedades de tu orden %s", order.OrderNumber)
		body = fmt.Sprintf("Hola %s,\n\nHay novedades en tu orden %s.\n\nMelodía Records",
			name, order.OrderNumber)
	}
	return subject, body, attachment
}
