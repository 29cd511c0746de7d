// Package worker implements the async job pipeline over redis lists:
// a Dispatcher LPUSHes JSON jobs, a pool of goroutines BRPOPs them, and
// jobs that exhaust their retries land in a dead-letter queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Queue keys.
const (
	QueueInvoices = "melodia:jobs:facturas"
	QueueEmails   = "melodia:jobs:correos"
	QueueDLQ      = "melodia:jobs:dlq"
)

// Email job kinds.
const (
	EmailOrderCreated = "orden_creada"
	EmailOrderStatus  = "orden_estado"
	EmailInvoice      = "factura"
)

// InvoiceJob asks a worker to render and emit one invoice PDF.
type InvoiceJob struct {
	InvoiceID uuid.UUID `json:"factura_id"`
}

// EmailJob asks a worker to send one notification email.
type EmailJob struct {
	Kind    string    `json:"tipo"`
	OrderID uuid.UUID `json:"orden_id"`
	Status  string    `json:"estado,omitempty"`
}

// Dispatcher enqueues jobs. It satisfies the service layer's Notifier and
// InvoiceEnqueuer interfaces.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) InvoiceCreated(ctx context.Context, invoiceID uuid.UUID) error {
	return d.push(ctx, QueueInvoices, InvoiceJob{InvoiceID: invoiceID})
}

func (d *Dispatcher) OrderCreated(ctx context.Context, orderID uuid.UUID) error {
	return d.push(ctx, QueueEmails, EmailJob{Kind: EmailOrderCreated, OrderID: orderID})
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, orderID uuid.UUID, status string) error {
	return d.push(ctx, QueueEmails, EmailJob{Kind: EmailOrderStatus, OrderID: orderID, Status: status})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job interface{}) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, payload).Err()
}

// Handlers processes jobs popped from the queues.
type Handlers interface {
	HandleInvoice(ctx context.Context, job InvoiceJob) error
	HandleEmail(ctx context.Context, job EmailJob) error
}

// Pool runs n workers that block on both queues and hand jobs to Handlers.
type Pool struct {
	rdb      *redis.Client
	handlers Handlers
	size     int
	wg       sync.WaitGroup
}

func NewPool(rdb *redis.Client, handlers Handlers, size int) *Pool {
	if size <= 0 {
		size = 5
	}
	return &Pool{rdb: rdb, handlers: handlers, size: size}
}

// Start launches the workers. They exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Int("workers", p.size).Msg("worker pool iniciado")
}

// Wait blocks until all workers have drained.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// BRPOP across both queues; the timeout lets us observe cancellation.
		res, err := p.rdb.BRPop(ctx, 5*time.Second, QueueInvoices, QueueEmails).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Int("worker", id).Msg("error leyendo la cola")
			time.Sleep(time.Second)
			continue
		}
		queue, payload := res[0], res[1]
		p.dispatch(ctx, queue, payload)
	}
}

func (p *Pool) dispatch(ctx context.Context, queue, payload string) {
	var err error
	switch queue {
	case QueueInvoices:
		var job InvoiceJob
		if err = json.Unmarshal([]byte(payload), &job); err == nil {
			err = p.handlers.HandleInvoice(ctx, job)
		}
	case QueueEmails:
		var job EmailJob
		if err = json.Unmarshal([]byte(payload), &job); err == nil {
			err = p.handlers.HandleEmail(ctx, job)
		}
	}
	if err != nil {
		log.Error().Err(err).Str("cola", queue).Str("payload", payload).Msg("job fallido")
		pushDLQ(ctx, p.rdb, queue, payload, err)
	}
}
