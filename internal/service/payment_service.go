package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

// errTransitionLost means another caller won the pending->terminal race.
// The loser re-reads the order and reports the settled state.
var errTransitionLost = errors.New("order transition lost")

// PaymentService is the reconciler between the two payment providers and the
// order state machine. Both confirmation entry points are idempotent: a
// redirect handler and a provider webhook may observe the same outcome
// concurrently without duplicating side effects.
type PaymentService struct {
	store     port.Store
	providers map[domain.PaymentMethod]port.PaymentProvider
	log       *slog.Logger
	now       func() time.Time
}

func NewPayment(store port.Store, log *slog.Logger, providers ...port.PaymentProvider) *PaymentService {
	byTag := make(map[domain.PaymentMethod]port.PaymentProvider, len(providers))
	for _, p := range providers {
		byTag[p.Tag()] = p
	}

	return &PaymentService{
		store:     store,
		providers: byTag,
		log:       log,
		now:       time.Now,
	}
}

// InitiatePayment creates a checkout session at the order's provider.
func (s *PaymentService) InitiatePayment(ctx context.Context, ownerID string, orderID uuid.UUID) (domain.CheckoutSession, error) {
	var zero domain.CheckoutSession

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return zero, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if order.OwnerID != ownerID {
		return zero, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	if order.Status != domain.OrderStatusPending {
		return zero, fmt.Errorf("order %s is %s: %w", orderID, order.Status, domain.ErrConflict)
	}

	provider, ok := s.providers[order.PaymentMethod]
	if !ok {
		return zero, fmt.Errorf("no provider for method %q", order.PaymentMethod)
	}

	lines := lo.Map(order.Items, func(item domain.OrderItem, _ int) domain.CheckoutLine {
		return domain.CheckoutLine{
			Name:        item.Product.ExamName,
			Description: lo.FromPtrOr(item.Product.ExamCode, "Certification exam bundle"),
			UnitPrice:   item.Price,
			Quantity:    item.Quantity,
		}
	})

	session, err := provider.Initiate(ctx, order, lines)
	if err != nil {
		return zero, fmt.Errorf("provider.Initiate: %w", err)
	}

	return session, nil
}

// HandleCallback verifies a provider callback and applies the confirmed
// outcome. Events the workflow does not act on yield a zero order and no
// error, so the transport can still acknowledge them.
func (s *PaymentService) HandleCallback(ctx context.Context, method domain.PaymentMethod, payload []byte, header http.Header) (domain.Order, error) {
	var o domain.Order

	provider, ok := s.providers[method]
	if !ok {
		return o, fmt.Errorf("no provider for method %q", method)
	}

	event, err := provider.VerifyCallback(ctx, payload, header)
	if err != nil {
		return o, fmt.Errorf("provider.VerifyCallback: %w", err)
	}

	if event.OrderID == uuid.Nil {
		s.log.Info("ignoring provider event", slog.String("method", string(method)))
		return o, nil
	}

	if event.Succeeded {
		return s.ConfirmSuccess(ctx, event.OrderID, event.ProviderTxID, method)
	}

	return s.ConfirmFailure(ctx, event.OrderID, event.Reason)
}

// ConfirmSuccess transitions the order to completed exactly once. The
// completion, the payment record, the entitlements and the cart clear are one
// transaction; a failure partway rolls everything back and leaves the order
// pending.
func (s *PaymentService) ConfirmSuccess(ctx context.Context, orderID uuid.UUID, providerTxID string, method domain.PaymentMethod) (domain.Order, error) {
	var o domain.Order

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	switch order.Status {
	case domain.OrderStatusCompleted:
		return order, nil
	case domain.OrderStatusCancelled:
		return o, fmt.Errorf("order %s is cancelled: %w", orderID, domain.ErrConflict)
	}

	txErr := s.store.InTx(ctx, func(r port.Repositories) error {
		won, err := r.Orders().CompleteOrder(ctx, orderID, providerTxID)
		if err != nil {
			return fmt.Errorf("orders.CompleteOrder: %w", err)
		}
		if !won {
			return errTransitionLost
		}

		if _, err := r.Payments().InsertPayment(ctx, completedPayment(order, providerTxID, method)); err != nil {
			return fmt.Errorf("payments.InsertPayment: %w", err)
		}

		for _, item := range order.Items {
			download, err := IssueDownload(order.OwnerID, item.ProductID, s.now())
			if err != nil {
				return fmt.Errorf("IssueDownload: %w", err)
			}

			if _, err := r.Downloads().InsertDownload(ctx, download); err != nil {
				return fmt.Errorf("downloads.InsertDownload: %w", err)
			}
		}

		if err := r.Carts().ClearCart(ctx, order.OwnerID); err != nil {
			return fmt.Errorf("carts.ClearCart: %w", err)
		}

		return nil
	})

	switch {
	case txErr == nil:
		s.log.Info("order completed",
			slog.String("order_id", orderID.String()),
			slog.String("method", string(method)))
	case errors.Is(txErr, errTransitionLost):
		// The other confirmation channel got there first; fall through to
		// report the settled state.
	default:
		return o, fmt.Errorf("store.InTx: %w", txErr)
	}

	final, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if final.Status == domain.OrderStatusCancelled {
		return o, fmt.Errorf("order %s is cancelled: %w", orderID, domain.ErrConflict)
	}

	return final, nil
}

// ConfirmFailure cancels a pending order and records a failed payment with
// zero amount. Terminal orders are left untouched; the cart is not cleared so
// the buyer can retry checkout.
func (s *PaymentService) ConfirmFailure(ctx context.Context, orderID uuid.UUID, reason string) (domain.Order, error) {
	var o domain.Order

	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	if order.Status.IsTerminal() {
		return order, nil
	}

	txErr := s.store.InTx(ctx, func(r port.Repositories) error {
		won, err := r.Orders().CancelOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.CancelOrder: %w", err)
		}
		if !won {
			return errTransitionLost
		}

		payment := domain.Payment{
			OrderID: order.ID,
			Amount:  domain.ZeroMoney(order.Total.Currency),
			Status:  domain.PaymentStatusFailed,
			Method:  order.PaymentMethod,
		}
		if _, err := r.Payments().InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("payments.InsertPayment: %w", err)
		}

		return nil
	})

	switch {
	case txErr == nil:
		s.log.Info("order cancelled",
			slog.String("order_id", orderID.String()),
			slog.String("reason", reason))
	case errors.Is(txErr, errTransitionLost):
	default:
		return o, fmt.Errorf("store.InTx: %w", txErr)
	}

	final, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return o, fmt.Errorf("orders.GetOrder: %w", err)
	}

	return final, nil
}

func completedPayment(order domain.Order, providerTxID string, method domain.PaymentMethod) domain.Payment {
	payment := domain.Payment{
		OrderID: order.ID,
		Amount:  order.Total,
		Status:  domain.PaymentStatusCompleted,
		Method:  method,
	}

	switch method {
	case domain.PaymentMethodStripe:
		payment.StripeID = lo.ToPtr(providerTxID)
	case domain.PaymentMethodPaypal:
		payment.PaypalID = lo.ToPtr(providerTxID)
	}

	return payment
}
