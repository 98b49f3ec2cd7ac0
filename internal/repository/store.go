package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sfexams/store/internal/port"
)

type store struct {
	db DBTX
}

// NewStore bundles the repositories over one pool and provides the
// transactional scope for the multi-step order completion.
func NewStore(pool *pgxpool.Pool) port.Store {
	return &store{db: pool}
}

func (s *store) Products() port.ProductRepository   { return NewProduct(s.db) }
func (s *store) Carts() port.CartRepository         { return NewCart(s.db) }
func (s *store) Orders() port.OrderRepository       { return NewOrder(s.db) }
func (s *store) Payments() port.PaymentRepository   { return NewPayment(s.db) }
func (s *store) Downloads() port.DownloadRepository { return NewDownload(s.db) }

func (s *store) InTx(ctx context.Context, fn func(r port.Repositories) error) error {
	_, err := withTx(ctx, s.db, func(q DBTX) (struct{}, error) {
		return struct{}{}, fn(&store{db: q})
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}
