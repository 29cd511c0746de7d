package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"melodia/internal/config"
	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/infra"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceEnqueuer hands a freshly created invoice to the async PDF pipeline.
// Implemented by the worker dispatcher.
type InvoiceEnqueuer interface {
	InvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error
}

// errPaymentDeclined aborts the payment transaction when the gateway says no;
// the Fallido attempt is recorded outside the rolled-back transaction.
var errPaymentDeclined = errors.New("pago rechazado por la pasarela")

// PaymentService charges orders through the gateway sidecar and issues the
// invoice in the same transaction as the successful payment. One Procesado
// payment per order, ever — retries after a decline create new attempts.
type PaymentService interface {
	ProcessPayment(ctx context.Context, userID uuid.UUID, isAdmin bool, req dto.ProcessPaymentRequest) (*dto.PaymentResponse, error)
	Refund(ctx context.Context, paymentID uuid.UUID, req dto.RefundPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*dto.PaymentResponse, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]dto.PaymentResponse, error)
	GetInvoice(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*dto.InvoiceResponse, error)
}

type paymentService struct {
	payments repository.PaymentRepository
	invoices repository.InvoiceRepository
	orders   repository.OrderRepository
	gateway  *infra.GatewayClient
	breaker  *infra.CircuitBreaker
	enqueuer InvoiceEnqueuer
	cfg      *config.Config
	now      func() time.Time
}

func NewPaymentService(
	payments repository.PaymentRepository,
	invoices repository.InvoiceRepository,
	orders repository.OrderRepository,
	gateway *infra.GatewayClient,
	breaker *infra.CircuitBreaker,
	enqueuer InvoiceEnqueuer,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		payments: payments,
		invoices: invoices,
		orders:   orders,
		gateway:  gateway,
		breaker:  breaker,
		enqueuer: enqueuer,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *paymentService) ProcessPayment(ctx context.Context, userID uuid.UUID, isAdmin bool, req dto.ProcessPaymentRequest) (*dto.PaymentResponse, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, &errs.ValidationError{Field: "orden_id", Reason: "uuid inválido"}
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errs.NotFound("orden", req.OrderID)
	}
	if !isAdmin && order.UserID != userID {
		return nil, errs.NotFound("orden", req.OrderID)
	}
	if order.Status != model.StatusPendiente {
		return nil, &errs.InvalidTransitionError{From: order.Status, To: model.StatusProcesando}
	}

	// Fast-path idempotency guard; re-checked under the order row lock below.
	if _, err := s.payments.FindProcessedByOrderID(ctx, orderID); err == nil {
		return nil, errs.ErrDuplicatePayment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// The amount is a confirmation, not an input — it must match the order
	// total exactly.
	if !req.Amount.Equal(order.Total) {
		return nil, &errs.AmountMismatchError{Expected: order.Total, Got: req.Amount}
	}

	payment := &model.Payment{
		OrderID:  orderID,
		Method:   req.Method,
		Status:   model.PaymentPendiente,
		Currency: order.Currency,
		Amount:   req.Amount,
	}

	var (
		invoice    *model.Invoice
		declined   *infra.ChargeResponse
		gatewayErr error
	)
	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		// Serialize concurrent attempts: lock the order row, then re-run the
		// guards a racing caller could have invalidated in the meantime.
		locked, err := s.orders.FindByIDForUpdateTx(tx, orderID)
		if err != nil {
			return err
		}
		if locked.Status != model.StatusPendiente {
			if locked.Status == model.StatusProcesando {
				return errs.ErrDuplicatePayment
			}
			return &errs.InvalidTransitionError{From: locked.Status, To: model.StatusProcesando}
		}
		if _, err := s.payments.FindProcessedByOrderIDTx(tx, orderID); err == nil {
			return errs.ErrDuplicatePayment
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Cash on delivery settles at the door; everything else goes through
		// the gateway sidecar behind the circuit breaker. Charging only after
		// the lock is won means a losing racer never reaches the gateway.
		if req.Method != model.MethodContraEntrega {
			charge, err := s.charge(ctx, order, req)
			if err != nil {
				gatewayErr = err
				return err
			}
			if charge.Result != "aprobado" {
				declined = charge
				return errPaymentDeclined
			}
			payment.TransactionRef = &charge.TransactionID
			payment.GatewayRef = &charge.GatewayRef
		}

		processedAt := s.now()
		payment.Status = model.PaymentProcesado
		payment.ProcessedAt = &processedAt

		if err := s.payments.CreateTx(tx, payment); err != nil {
			return err
		}
		inv, err := s.issueInvoiceTx(ctx, tx, order)
		if err != nil {
			return err
		}
		invoice = inv
		return s.orders.UpdateStatusTx(tx, orderID, model.StatusProcesando, nil)
	})
	switch {
	case err == nil:
	case errors.Is(err, errPaymentDeclined):
		s.recordFailure(ctx, payment)
		log.Warn().Str("orden", order.OrderNumber).Str("motivo", declined.Message).
			Msg("pago rechazado por la pasarela")
		return paymentToResponse(payment), nil
	case gatewayErr != nil:
		s.recordFailure(ctx, payment)
		return nil, fmt.Errorf("pasarela de pagos no disponible: %w", gatewayErr)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// The invoices.order_id unique index fired: a concurrent payment won.
		return nil, errs.ErrDuplicatePayment
	default:
		return nil, err
	}

	if s.enqueuer != nil && invoice != nil {
		if qerr := s.enqueuer.InvoiceCreated(ctx, invoice.ID); qerr != nil {
			// The retry cron picks it up later; the payment already committed.
			log.Error().Err(qerr).Str("factura", invoice.InvoiceNumber).
				Msg("no se pudo encolar la emisión de la factura")
		}
	}
	return paymentToResponse(payment), nil
}

func (s *paymentService) charge(ctx context.Context, order *model.Order, req dto.ProcessPaymentRequest) (*infra.ChargeResponse, error) {
	amount, _ := req.Amount.Float64()
	var out *infra.ChargeResponse
	err := s.breaker.Execute(func() error {
		resp, err := s.gateway.Charge(ctx, infra.ChargeRequest{
			OrderNumber: order.OrderNumber,
			Amount:      amount,
			Currency:    order.Currency,
			Method:      req.Method,
			CardRef:     req.CardRef,
		})
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}

// recordFailure persists a Fallido attempt so the order's payment history
// stays complete. Errors here are logged, not surfaced — the caller already
// has a better error to return.
func (s *paymentService) recordFailure(ctx context.Context, payment *model.Payment) {
	payment.Status = model.PaymentFallido
	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		return s.payments.CreateTx(tx, payment)
	})
	if err != nil {
		log.Error().Err(err).Str("orden_id", payment.OrderID.String()).
			Msg("no se pudo registrar el intento de pago fallido")
	}
}

// issueInvoiceTx creates the immutable invoice row inside the payment
// transaction. The PDF is rendered asynchronously afterwards.
func (s *paymentService) issueInvoiceTx(ctx context.Context, tx *gorm.DB, order *model.Order) (*model.Invoice, error) {
	num, err := s.invoices.NextInvoiceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}
	issued := s.now()
	inv := &model.Invoice{
		OrderID:       order.ID,
		InvoiceNumber: fmt.Sprintf("FAC-%06d", num),
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, s.cfg.InvoiceDueDays),
		Subtotal:      order.Subtotal,
		TaxAmount:     order.TaxAmount,
		TotalAmount:   order.Total,
		Estado:        "pendiente",
	}
	if err := s.invoices.CreateTx(tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *paymentService) Refund(ctx context.Context, paymentID uuid.UUID, req dto.RefundPaymentRequest) (*dto.PaymentResponse, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, errs.NotFound("pago", paymentID.String())
	}
	if payment.Status != model.PaymentProcesado {
		return nil, &errs.InvalidTransitionError{From: payment.Status, To: model.PaymentReembolsado}
	}
	refundable := payment.Amount.Sub(payment.RefundedAmount)
	if req.Amount.LessThanOrEqual(decimal.Zero) || req.Amount.GreaterThan(refundable) {
		return nil, &errs.AmountMismatchError{Expected: refundable, Got: req.Amount}
	}

	if payment.TransactionRef != nil {
		amount, _ := req.Amount.Float64()
		err = s.breaker.Execute(func() error {
			resp, err := s.gateway.Refund(ctx, infra.RefundRequest{
				TransactionID: *payment.TransactionRef,
				Amount:        amount,
				Reason:        req.Reason,
			})
			if err != nil {
				return err
			}
			if resp.Result != "aprobado" {
				return fmt.Errorf("reembolso rechazado: %s", resp.Message)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("pasarela de pagos no disponible: %w", err)
		}
	}

	payment.RefundedAmount = payment.RefundedAmount.Add(req.Amount)
	if payment.RefundedAmount.Equal(payment.Amount) {
		payment.Status = model.PaymentReembolsado
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, err
	}
	return paymentToResponse(payment), nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*dto.PaymentResponse, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, errs.NotFound("pago", paymentID.String())
	}
	return paymentToResponse(payment), nil
}

func (s *paymentService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]dto.PaymentResponse, error) {
	payments, err := s.payments.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, *paymentToResponse(&payments[i]))
	}
	return out, nil
}

func (s *paymentService) GetInvoice(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*dto.InvoiceResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errs.NotFound("orden", orderID.String())
	}
	if !isAdmin && order.UserID != userID {
		return nil, errs.NotFound("orden", orderID.String())
	}
	inv, err := s.invoices.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errs.NotFound("factura", "")
	}
	return invoiceToResponse(inv), nil
}

// ── mapping ──────────────────────────────────────────────────────────────────

func paymentToResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:             p.ID.String(),
		OrderID:        p.OrderID.String(),
		Method:         p.Method,
		Status:         p.Status,
		Currency:       p.Currency,
		Amount:         p.Amount,
		TransactionRef: p.TransactionRef,
		RefundedAmount: p.RefundedAmount,
	}
	if p.ProcessedAt != nil {
		t := p.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &t
	}
	return resp
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		OrderID:       inv.OrderID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate.Format(time.RFC3339),
		DueDate:       inv.DueDate.Format(time.RFC3339),
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		Estado:        inv.Estado,
	}
	if inv.PDFPath != nil {
		url := "/v1/facturas/" + inv.ID.String() + "/pdf"
		resp.PDFUrl = &url
	}
	return resp
}
