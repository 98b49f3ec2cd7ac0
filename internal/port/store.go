package port

import "context"

// Repositories bundles the per-table repositories that share one backing
// store, either a connection pool or a single transaction.
type Repositories interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Downloads() DownloadRepository
}

// Store is the durable store capability. InTx runs fn with repositories bound
// to a single transaction; the transaction commits only if fn returns nil.
type Store interface {
	Repositories

	InTx(ctx context.Context, fn func(r Repositories) error) error
}
