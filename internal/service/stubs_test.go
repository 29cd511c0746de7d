package service

// In-memory repository stubs. Services open no real transactions when the
// stub DB() returns nil, so every *Tx method simply mutates the maps.

import (
	"context"
	"sort"
	"strings"
	"time"

	"melodia/internal/dto"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── ArticleRepository ────────────────────────────────────────────────────────

type stubArticleRepo struct {
	articles map[uuid.UUID]*model.Article
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{articles: make(map[uuid.UUID]*model.Article)}
}

func (r *stubArticleRepo) add(a *model.Article) *model.Article {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.articles[a.ID] = a
	return a
}

func (r *stubArticleRepo) Create(_ context.Context, a *model.Article) error {
	r.add(a)
	return nil
}

func (r *stubArticleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Article, error) {
	a, ok := r.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubArticleRepo) FindBySKU(_ context.Context, sku string) (*model.Article, error) {
	for _, a := range r.articles {
		if a.SKU == sku {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubArticleRepo) List(_ context.Context, _ dto.ArticleFilter) ([]model.Article, int64, error) {
	var out []model.Article
	for _, a := range r.articles {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *stubArticleRepo) Update(_ context.Context, a *model.Article) error {
	stored, ok := r.articles[a.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// stock_quantity is not writable through Update
	a.StockQuantity = stored.StockQuantity
	r.articles[a.ID] = a
	return nil
}

func (r *stubArticleRepo) ListBelowMinStock(_ context.Context) ([]model.Article, error) {
	var out []model.Article
	for _, a := range r.articles {
		if a.Available && a.StockQuantity <= a.MinStockLevel {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubArticleRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Article, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubArticleRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, newStock int) error {
	a, ok := r.articles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.StockQuantity = newStock
	return nil
}

func (r *stubArticleRepo) DB() *gorm.DB { return nil }

// ── StockMovementRepository ──────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ArticleID != nil && m.ArticleID != *filter.ArticleID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.ReferenceType != "" && m.ReferenceType != filter.ReferenceType {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── CartRepository ───────────────────────────────────────────────────────────

type stubCartRepo struct {
	carts map[uuid.UUID]*model.Cart // by user id
	items map[uuid.UUID]*model.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts: make(map[uuid.UUID]*model.Cart),
		items: make(map[uuid.UUID]*model.CartItem),
	}
}

func (r *stubCartRepo) FindOrCreate(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	if cart, ok := r.carts[userID]; ok {
		return r.withItems(cart), nil
	}
	cart := &model.Cart{ID: uuid.New(), UserID: userID, Subtotal: decimal.Zero}
	r.carts[userID] = cart
	return cart, nil
}

func (r *stubCartRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, ok := r.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withItems(cart), nil
}

func (r *stubCartRepo) withItems(cart *model.Cart) *model.Cart {
	out := *cart
	out.Items = nil
	for _, item := range r.items {
		if item.CartID == cart.ID {
			out.Items = append(out.Items, *item)
		}
	}
	sort.Slice(out.Items, func(i, j int) bool {
		return strings.Compare(out.Items[i].ID.String(), out.Items[j].ID.String()) < 0
	})
	return &out
}

func (r *stubCartRepo) FindItem(_ context.Context, cartID, articleID uuid.UUID) (*model.CartItem, error) {
	for _, item := range r.items {
		if item.CartID == cartID && item.ArticleID == articleID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCartRepo) FindItemByID(_ context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubCartRepo) CreateItem(_ context.Context, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubCartRepo) UpdateItem(_ context.Context, item *model.CartItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(r.items, itemID)
	return nil
}

func (r *stubCartRepo) UpdateSubtotal(_ context.Context, cartID uuid.UUID, subtotal decimal.Decimal) error {
	for _, cart := range r.carts {
		if cart.ID == cartID {
			cart.Subtotal = subtotal
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubCartRepo) ClearTx(_ *gorm.DB, cartID uuid.UUID) error {
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	for _, cart := range r.carts {
		if cart.ID == cartID {
			cart.Subtotal = decimal.Zero
		}
	}
	return nil
}

func (r *stubCartRepo) DB() *gorm.DB { return nil }

// ── PromotionRepository ──────────────────────────────────────────────────────

type stubPromoRepo struct {
	promos map[uuid.UUID]*model.CdPromotion
}

func newStubPromoRepo() *stubPromoRepo {
	return &stubPromoRepo{promos: make(map[uuid.UUID]*model.CdPromotion)}
}

func (r *stubPromoRepo) Create(_ context.Context, p *model.CdPromotion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promos[p.ID] = p
	return nil
}

func (r *stubPromoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CdPromotion, error) {
	p, ok := r.promos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPromoRepo) List(_ context.Context, onlyActive bool) ([]model.CdPromotion, error) {
	var out []model.CdPromotion
	for _, p := range r.promos {
		if onlyActive && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPromoRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	p, ok := r.promos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = active
	return nil
}

func (r *stubPromoRepo) AttachArticles(_ context.Context, p *model.CdPromotion, articles []model.Article) error {
	p.Articles = append(p.Articles, articles...)
	return nil
}

// ── OrderRepository ──────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders map[uuid.UUID]*model.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) FindByNumber(_ context.Context, number string) (*model.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, _ dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) List(_ context.Context, _ dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string, fields map[string]interface{}) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	if v, ok := fields["shipped_at"]; ok {
		t := v.(time.Time)
		o.ShippedAt = &t
	}
	if v, ok := fields["delivered_at"]; ok {
		t := v.(time.Time)
		o.DeliveredAt = &t
	}
	return nil
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

// ── PaymentRepository ────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments map[uuid.UUID]*model.Payment
}

func newStubPaymentRepo() *stubPaymentRepo {
	return &stubPaymentRepo{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments[p.ID] = p
	return nil
}

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPaymentRepo) FindProcessedByOrderID(_ context.Context, orderID uuid.UUID) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.OrderID == orderID && p.Status == model.PaymentProcesado {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPaymentRepo) FindProcessedByOrderIDTx(_ *gorm.DB, orderID uuid.UUID) (*model.Payment, error) {
	return r.FindProcessedByOrderID(context.Background(), orderID)
}

func (r *stubPaymentRepo) ListByOrderID(_ context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) Update(_ context.Context, p *model.Payment) error {
	r.payments[p.ID] = p
	return nil
}

// ── InvoiceRepository ────────────────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	seq      int64
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) FindByOrderID(_ context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.OrderID == orderID {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) NextInvoiceNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubInvoiceRepo) ListPendingRetries(_ context.Context, before time.Time, limit int) ([]model.Invoice, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.Estado == "pendiente" && inv.NextRetryAt != nil && inv.NextRetryAt.Before(before) {
			out = append(out, *inv)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── UserRepository ───────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

// ── Notifier / enqueuer ──────────────────────────────────────────────────────

type stubNotifier struct {
	created []uuid.UUID
	status  []string
}

func (n *stubNotifier) OrderCreated(_ context.Context, orderID uuid.UUID) error {
	n.created = append(n.created, orderID)
	return nil
}

func (n *stubNotifier) OrderStatusChanged(_ context.Context, _ uuid.UUID, status string) error {
	n.status = append(n.status, status)
	return nil
}

type stubEnqueuer struct {
	invoices []uuid.UUID
}

func (e *stubEnqueuer) InvoiceCreated(_ context.Context, invoiceID uuid.UUID) error {
	e.invoices = append(e.invoices, invoiceID)
	return nil
}
