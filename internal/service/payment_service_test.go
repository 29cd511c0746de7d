package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"melodia/internal/config"
	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/infra"
	"melodia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type paymentFixture struct {
	svc        PaymentService
	payments   *stubPaymentRepo
	invoices   *stubInvoiceRepo
	orders     *stubOrderRepo
	enqueuer   *stubEnqueuer
	userID     uuid.UUID
	gatewayURL string
	cfg        *config.Config
}

// newPaymentFixture wires the service against a fake gateway sidecar. A nil
// handler means the gateway is unreachable.
func newPaymentFixture(t *testing.T, gatewayHandler http.HandlerFunc) *paymentFixture {
	url := "http://127.0.0.1:1" // closed port: connection refused
	if gatewayHandler != nil {
		srv := httptest.NewServer(gatewayHandler)
		t.Cleanup(srv.Close)
		url = srv.URL
	}

	f := &paymentFixture{
		payments:   newStubPaymentRepo(),
		invoices:   newStubInvoiceRepo(),
		orders:     newStubOrderRepo(),
		enqueuer:   &stubEnqueuer{},
		userID:     uuid.New(),
		gatewayURL: url,
		cfg:        testConfig(),
	}
	f.cfg.InvoiceDueDays = 30
	f.svc = NewPaymentService(
		f.payments, f.invoices, f.orders,
		infra.NewGatewayClient(url),
		infra.NewCircuitBreaker(infra.DefaultCBConfig()),
		f.enqueuer, f.cfg,
	)
	return f
}

func (f *paymentFixture) seedOrder(status string, total string) *model.Order {
	order := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "MEL-20260301120000-0001",
		UserID:      f.userID,
		Status:      status,
		Currency:    "USD",
		Subtotal:    decimal.RequireFromString(total).Sub(decimal.RequireFromString("7.32")),
		TaxAmount:   decimal.RequireFromString("2.32"),
		Total:       decimal.RequireFromString(total),
	}
	f.orders.orders[order.ID] = order
	return order
}

func approvingGateway() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(infra.ChargeResponse{
			TransactionID: "tx-123",
			GatewayRef:    "gw-456",
			Result:        "aprobado",
		})
	}
}

func rejectingGateway() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(infra.ChargeResponse{
			Result:  "rechazado",
			Message: "fondos insuficientes",
		})
	}
}

func TestProcessPaymentApproved(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")

	resp, err := f.svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentProcesado, resp.Status)
	require.NotNil(t, resp.TransactionRef)
	assert.Equal(t, "tx-123", *resp.TransactionRef)
	assert.NotNil(t, resp.ProcessedAt)

	// The order moved to Procesando and the invoice exists with the first
	// sequence number, queued for PDF emission.
	assert.Equal(t, model.StatusProcesando, order.Status)
	inv, err := f.invoices.FindByOrderID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "FAC-000001", inv.InvoiceNumber)
	assert.Equal(t, "pendiente", inv.Estado)
	assert.True(t, inv.TotalAmount.Equal(order.Total))
	assert.Equal(t, []uuid.UUID{inv.ID}, f.enqueuer.invoices)
}

func TestProcessPaymentRejectedByGateway(t *testing.T) {
	f := newPaymentFixture(t, rejectingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")

	resp, err := f.svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	// A decline is a valid business outcome, not a transport error.
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFallido, resp.Status)

	// No invoice, order unchanged, the attempt persisted for the history.
	assert.Equal(t, model.StatusPendiente, order.Status)
	_, err = f.invoices.FindByOrderID(context.Background(), order.ID)
	assert.Error(t, err)
	assert.Len(t, f.payments.payments, 1)
	assert.Empty(t, f.enqueuer.invoices)
}

func TestProcessPaymentGatewayDown(t *testing.T) {
	f := newPaymentFixture(t, nil)
	order := f.seedOrder(model.StatusPendiente, "36.32")

	_, err := f.svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pasarela de pagos no disponible")
	assert.Equal(t, model.StatusPendiente, order.Status)
	// The failed attempt is still recorded.
	assert.Len(t, f.payments.payments, 1)
}

func TestProcessPaymentBreakerOpensAfterFailures(t *testing.T) {
	f := newPaymentFixture(t, nil)
	order := f.seedOrder(model.StatusPendiente, "36.32")
	req := dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	}

	// Default threshold is 3 consecutive failures; the fourth call fails
	// fast without touching the network.
	for i := 0; i < 4; i++ {
		_, err := f.svc.ProcessPayment(context.Background(), f.userID, false, req)
		require.Error(t, err)
	}
	_, err := f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

func TestProcessPaymentContraEntrega(t *testing.T) {
	// Cash on delivery never touches the gateway: unreachable URL, no error.
	f := newPaymentFixture(t, nil)
	order := f.seedOrder(model.StatusPendiente, "36.32")

	resp, err := f.svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  model.MethodContraEntrega,
		Amount:  decimal.RequireFromString("36.32"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentProcesado, resp.Status)
	assert.Nil(t, resp.TransactionRef)
	assert.Equal(t, model.StatusProcesando, order.Status)
}

func TestProcessPaymentAmountMismatch(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusPendiente, "29.00")

	_, err := f.svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("10.00"),
	})

	var mismatch *errs.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Expected.Equal(decimal.RequireFromString("29.00")))
	assert.Empty(t, f.payments.payments)
}

func TestProcessPaymentDuplicate(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")
	req := dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	}

	_, err := f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	require.NoError(t, err)

	// The first payment already moved the order off Pendiente.
	_, err = f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	var invalid *errs.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	// Even if the status were rewound, the processed-payment guard holds.
	order.Status = model.StatusPendiente
	_, err = f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	assert.ErrorIs(t, err, errs.ErrDuplicatePayment)
}

// racedPaymentRepo mimics a concurrent payment committing between the
// fast-path guard and the transaction: the plain lookup misses, the
// in-transaction lookup under the order lock finds the winner.
type racedPaymentRepo struct {
	*stubPaymentRepo
	winner *model.Payment
}

func (r *racedPaymentRepo) FindProcessedByOrderID(_ context.Context, _ uuid.UUID) (*model.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *racedPaymentRepo) FindProcessedByOrderIDTx(_ *gorm.DB, _ uuid.UUID) (*model.Payment, error) {
	return r.winner, nil
}

func TestProcessPaymentConcurrentWinnerDetectedUnderLock(t *testing.T) {
	// Gateway unreachable on purpose: if the losing call reached it, the
	// error would be a transport failure, not the duplicate rejection.
	f := newPaymentFixture(t, nil)
	order := f.seedOrder(model.StatusPendiente, "36.32")

	raced := &racedPaymentRepo{stubPaymentRepo: f.payments, winner: &model.Payment{
		ID: uuid.New(), OrderID: order.ID, Status: model.PaymentProcesado,
	}}
	svc := NewPaymentService(raced, f.invoices, f.orders,
		infra.NewGatewayClient(f.gatewayURL),
		infra.NewCircuitBreaker(infra.DefaultCBConfig()),
		f.enqueuer, f.cfg)

	_, err := svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	assert.ErrorIs(t, err, errs.ErrDuplicatePayment)
	assert.Equal(t, model.StatusPendiente, order.Status)
	assert.Empty(t, f.payments.payments)
}

// conflictedInvoiceRepo raises the duplicate-key violation the
// invoices.order_id unique index produces when an invoice already exists.
type conflictedInvoiceRepo struct {
	*stubInvoiceRepo
}

func (r *conflictedInvoiceRepo) CreateTx(_ *gorm.DB, _ *model.Invoice) error {
	return gorm.ErrDuplicatedKey
}

func TestProcessPaymentInvoiceConflictIsDuplicate(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")

	svc := NewPaymentService(f.payments, &conflictedInvoiceRepo{f.invoices}, f.orders,
		infra.NewGatewayClient(f.gatewayURL),
		infra.NewCircuitBreaker(infra.DefaultCBConfig()),
		f.enqueuer, f.cfg)

	_, err := svc.ProcessPayment(context.Background(), f.userID, false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	assert.ErrorIs(t, err, errs.ErrDuplicatePayment)
	assert.Equal(t, model.StatusPendiente, order.Status)
	assert.Empty(t, f.enqueuer.invoices)
}

func TestProcessPaymentFailedAttemptCanRetry(t *testing.T) {
	f := newPaymentFixture(t, rejectingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")
	req := dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	}

	resp, err := f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	require.NoError(t, err)
	require.Equal(t, model.PaymentFallido, resp.Status)

	// A declined attempt does not block a second try.
	resp, err = f.svc.ProcessPayment(context.Background(), f.userID, false, req)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFallido, resp.Status)
	assert.Len(t, f.payments.payments, 2)
}

func TestProcessPaymentOwnership(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusPendiente, "36.32")

	_, err := f.svc.ProcessPayment(context.Background(), uuid.New(), false, dto.ProcessPaymentRequest{
		OrderID: order.ID.String(),
		Method:  "tarjeta",
		Amount:  decimal.RequireFromString("36.32"),
	})
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRefundPartialThenFull(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	ref := "tx-123"
	processed := time.Now()
	payment := &model.Payment{
		ID: uuid.New(), OrderID: uuid.New(), Method: "tarjeta",
		Status: model.PaymentProcesado, Currency: "USD",
		Amount:         decimal.RequireFromString("36.32"),
		RefundedAmount: decimal.Zero,
		TransactionRef: &ref, ProcessedAt: &processed,
	}
	f.payments.payments[payment.ID] = payment

	resp, err := f.svc.Refund(context.Background(), payment.ID, dto.RefundPaymentRequest{
		Amount: decimal.RequireFromString("10.00"), Reason: "artículo dañado",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentProcesado, resp.Status)
	assert.True(t, resp.RefundedAmount.Equal(decimal.RequireFromString("10.00")))

	resp, err = f.svc.Refund(context.Background(), payment.ID, dto.RefundPaymentRequest{
		Amount: decimal.RequireFromString("26.32"), Reason: "cancelación total",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentReembolsado, resp.Status)
	assert.True(t, resp.RefundedAmount.Equal(payment.Amount))
}

func TestRefundOverRefundableAmount(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	payment := &model.Payment{
		ID: uuid.New(), OrderID: uuid.New(), Method: "tarjeta",
		Status: model.PaymentProcesado, Currency: "USD",
		Amount:         decimal.RequireFromString("36.32"),
		RefundedAmount: decimal.RequireFromString("30.00"),
	}
	f.payments.payments[payment.ID] = payment

	_, err := f.svc.Refund(context.Background(), payment.ID, dto.RefundPaymentRequest{
		Amount: decimal.RequireFromString("10.00"), Reason: "demasiado",
	})

	var mismatch *errs.AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Expected.Equal(decimal.RequireFromString("6.32")))
}

func TestRefundRequiresProcesado(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	payment := &model.Payment{
		ID: uuid.New(), OrderID: uuid.New(), Method: "tarjeta",
		Status: model.PaymentFallido, Currency: "USD",
		Amount: decimal.RequireFromString("36.32"),
	}
	f.payments.payments[payment.ID] = payment

	_, err := f.svc.Refund(context.Background(), payment.ID, dto.RefundPaymentRequest{
		Amount: decimal.RequireFromString("36.32"), Reason: "no aplica",
	})
	var invalid *errs.InvalidTransitionError
	assert.ErrorAs(t, err, &invalid)
}

func TestGetInvoiceOwnership(t *testing.T) {
	f := newPaymentFixture(t, approvingGateway())
	order := f.seedOrder(model.StatusProcesando, "36.32")
	inv := &model.Invoice{
		ID: uuid.New(), OrderID: order.ID, InvoiceNumber: "FAC-000007",
		IssueDate: time.Now(), DueDate: time.Now().AddDate(0, 0, 30),
		Subtotal: order.Subtotal, TaxAmount: order.TaxAmount, TotalAmount: order.Total,
		Estado: "pendiente",
	}
	f.invoices.invoices[inv.ID] = inv

	resp, err := f.svc.GetInvoice(context.Background(), f.userID, false, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "FAC-000007", resp.InvoiceNumber)
	assert.Nil(t, resp.PDFUrl) // not emitted yet

	_, err = f.svc.GetInvoice(context.Background(), uuid.New(), false, order.ID)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
