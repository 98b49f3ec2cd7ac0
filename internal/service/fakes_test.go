package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

// fakeStore is an in-memory port.Store. A single mutex serializes InTx
// callbacks, standing in for the row locks of the real store.
type fakeStore struct {
	mu sync.Mutex

	products  map[uuid.UUID]domain.Product
	carts     map[string][]domain.CartItem
	orders    map[uuid.UUID]domain.Order
	payments  map[uuid.UUID][]domain.Payment
	downloads map[string]domain.Download
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  map[uuid.UUID]domain.Product{},
		carts:     map[string][]domain.CartItem{},
		orders:    map[uuid.UUID]domain.Order{},
		payments:  map[uuid.UUID][]domain.Payment{},
		downloads: map[string]domain.Download{},
	}
}

func (s *fakeStore) Products() port.ProductRepository   { return (*fakeProducts)(s) }
func (s *fakeStore) Carts() port.CartRepository         { return (*fakeCarts)(s) }
func (s *fakeStore) Orders() port.OrderRepository       { return (*fakeOrders)(s) }
func (s *fakeStore) Payments() port.PaymentRepository   { return (*fakePayments)(s) }
func (s *fakeStore) Downloads() port.DownloadRepository { return (*fakeDownloads)(s) }

func (s *fakeStore) InTx(_ context.Context, fn func(r port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(lockedRepos{s})
}

// lockedRepos hands out repository views that skip locking, for use inside
// InTx where the store mutex is already held.
type lockedRepos struct {
	s *fakeStore
}

func (r lockedRepos) Products() port.ProductRepository   { return (*fakeProducts)(r.s) }
func (r lockedRepos) Carts() port.CartRepository         { return lockedCarts{r.s} }
func (r lockedRepos) Orders() port.OrderRepository       { return lockedOrders{r.s} }
func (r lockedRepos) Payments() port.PaymentRepository   { return lockedPayments{r.s} }
func (r lockedRepos) Downloads() port.DownloadRepository { return lockedDownloads{r.s} }

type fakeProducts fakeStore

func (f *fakeProducts) GetProduct(_ context.Context, productID uuid.UUID) (domain.Product, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}

func (f *fakeProducts) ListProducts(_ context.Context) ([]domain.Product, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Values(s.products), nil
}

func (f *fakeProducts) InsertProduct(_ context.Context, product domain.Product) (uuid.UUID, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = uuid.New()
	s.products[product.ID] = product
	return product.ID, nil
}

type fakeCarts fakeStore

func (f *fakeCarts) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedCarts{s}.GetCart(ctx, ownerID)
}

func (f *fakeCarts) UpsertItem(ctx context.Context, ownerID string, productID uuid.UUID, delta int32) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedCarts{s}.UpsertItem(ctx, ownerID, productID, delta)
}

func (f *fakeCarts) SetItemQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedCarts{s}.SetItemQuantity(ctx, ownerID, productID, quantity)
}

func (f *fakeCarts) DeleteItem(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedCarts{s}.DeleteItem(ctx, ownerID, productID)
}

func (f *fakeCarts) ClearCart(ctx context.Context, ownerID string) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedCarts{s}.ClearCart(ctx, ownerID)
}

type lockedCarts struct{ s *fakeStore }

func (l lockedCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	return domain.Cart{OwnerID: ownerID, Items: l.s.carts[ownerID]}, nil
}

func (l lockedCarts) UpsertItem(_ context.Context, ownerID string, productID uuid.UUID, delta int32) error {
	items := l.s.carts[ownerID]
	for i, item := range items {
		if item.ProductID == productID {
			items[i].Quantity += delta
			return nil
		}
	}

	product := l.s.products[productID]
	l.s.carts[ownerID] = append(items, domain.CartItem{
		ProductID: productID,
		Quantity:  delta,
		Product:   product.Summary(),
	})
	return nil
}

func (l lockedCarts) SetItemQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int32) error {
	if quantity <= 0 {
		_, err := l.DeleteItem(ctx, ownerID, productID)
		return err
	}

	items := l.s.carts[ownerID]
	for i, item := range items {
		if item.ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}

	return l.UpsertItem(ctx, ownerID, productID, quantity)
}

func (l lockedCarts) DeleteItem(_ context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	items := l.s.carts[ownerID]
	filtered := lo.Reject(items, func(item domain.CartItem, _ int) bool {
		return item.ProductID == productID
	})
	l.s.carts[ownerID] = filtered

	return len(filtered) < len(items), nil
}

func (l lockedCarts) ClearCart(_ context.Context, ownerID string) error {
	delete(l.s.carts, ownerID)
	return nil
}

type fakeOrders fakeStore

func (f *fakeOrders) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedOrders{s}.GetOrder(ctx, orderID)
}

func (f *fakeOrders) ListOrders(ctx context.Context, ownerID string) ([]domain.Order, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedOrders{s}.ListOrders(ctx, ownerID)
}

func (f *fakeOrders) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedOrders{s}.InsertOrder(ctx, order)
}

func (f *fakeOrders) CompleteOrder(ctx context.Context, orderID uuid.UUID, providerPaymentID string) (bool, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedOrders{s}.CompleteOrder(ctx, orderID, providerPaymentID)
}

func (f *fakeOrders) CancelOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedOrders{s}.CancelOrder(ctx, orderID)
}

type lockedOrders struct{ s *fakeStore }

func (l lockedOrders) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, ok := l.s.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	return order, nil
}

func (l lockedOrders) ListOrders(_ context.Context, ownerID string) ([]domain.Order, error) {
	orders := lo.Filter(lo.Values(l.s.orders), func(o domain.Order, _ int) bool {
		return o.OwnerID == ownerID
	})
	return orders, nil
}

func (l lockedOrders) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	order.ID = uuid.New()
	order.Status = domain.OrderStatusPending
	order.CreatedAt = time.Now()
	l.s.orders[order.ID] = order
	return order.ID, nil
}

func (l lockedOrders) CompleteOrder(_ context.Context, orderID uuid.UUID, providerPaymentID string) (bool, error) {
	order, ok := l.s.orders[orderID]
	if !ok || order.Status != domain.OrderStatusPending {
		return false, nil
	}

	order.Status = domain.OrderStatusCompleted
	order.ProviderPaymentID = lo.ToPtr(providerPaymentID)
	l.s.orders[orderID] = order
	return true, nil
}

func (l lockedOrders) CancelOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	order, ok := l.s.orders[orderID]
	if !ok || order.Status != domain.OrderStatusPending {
		return false, nil
	}

	order.Status = domain.OrderStatusCancelled
	l.s.orders[orderID] = order
	return true, nil
}

type fakePayments fakeStore

func (f *fakePayments) InsertPayment(ctx context.Context, payment domain.Payment) (uuid.UUID, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedPayments{s}.InsertPayment(ctx, payment)
}

func (f *fakePayments) ListPayments(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedPayments{s}.ListPayments(ctx, orderID)
}

type lockedPayments struct{ s *fakeStore }

func (l lockedPayments) InsertPayment(_ context.Context, payment domain.Payment) (uuid.UUID, error) {
	payment.ID = uuid.New()
	l.s.payments[payment.OrderID] = append(l.s.payments[payment.OrderID], payment)
	return payment.ID, nil
}

func (l lockedPayments) ListPayments(_ context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	return l.s.payments[orderID], nil
}

type fakeDownloads fakeStore

func (f *fakeDownloads) InsertDownload(ctx context.Context, download domain.Download) (uuid.UUID, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedDownloads{s}.InsertDownload(ctx, download)
}

func (f *fakeDownloads) ListDownloads(ctx context.Context, ownerID string) ([]domain.Download, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedDownloads{s}.ListDownloads(ctx, ownerID)
}

func (f *fakeDownloads) Redeem(ctx context.Context, token string) (domain.Download, error) {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedDownloads{s}.Redeem(ctx, token)
}

func (f *fakeDownloads) Deactivate(ctx context.Context, downloadID uuid.UUID) error {
	s := (*fakeStore)(f)
	s.mu.Lock()
	defer s.mu.Unlock()

	return lockedDownloads{s}.Deactivate(ctx, downloadID)
}

type lockedDownloads struct{ s *fakeStore }

func (l lockedDownloads) InsertDownload(_ context.Context, download domain.Download) (uuid.UUID, error) {
	download.ID = uuid.New()
	l.s.downloads[download.Token] = download
	return download.ID, nil
}

func (l lockedDownloads) ListDownloads(_ context.Context, ownerID string) ([]domain.Download, error) {
	return lo.Filter(lo.Values(l.s.downloads), func(d domain.Download, _ int) bool {
		return d.OwnerID == ownerID
	}), nil
}

func (l lockedDownloads) Redeem(_ context.Context, token string) (domain.Download, error) {
	d, ok := l.s.downloads[token]
	if !ok || !d.ExpiresAt.After(time.Now()) {
		return domain.Download{}, domain.ErrNotFound
	}

	if d.DownloadCount >= d.MaxDownloads {
		return domain.Download{}, fmt.Errorf("%w: %d of %d used", domain.ErrLimitExceeded, d.DownloadCount, d.MaxDownloads)
	}

	if !d.Active {
		return domain.Download{}, domain.ErrNotFound
	}

	d.DownloadCount++
	d.Active = d.DownloadCount < d.MaxDownloads
	l.s.downloads[token] = d
	return d, nil
}

func (l lockedDownloads) Deactivate(_ context.Context, downloadID uuid.UUID) error {
	for token, d := range l.s.downloads {
		if d.ID == downloadID {
			d.Active = false
			l.s.downloads[token] = d
			return nil
		}
	}
	return domain.ErrNotFound
}
