package domain

import "errors"

var (
	// ErrNotFound covers unknown orders, unknown products and unknown,
	// inactive or expired download tokens. Expired tokens are deliberately
	// indistinguishable from tokens that never existed.
	ErrNotFound = errors.New("not found")

	// ErrEmptyCart rejects checkout of an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrConflict signals an impossible transition request, e.g. confirming
	// payment success on an order that is already cancelled.
	ErrConflict = errors.New("conflicting order state")

	// ErrLimitExceeded signals an exhausted download entitlement.
	ErrLimitExceeded = errors.New("download limit exceeded")

	// ErrUnauthenticated signals a request with no identity context.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrBadSignature rejects a provider callback whose signature does not
	// verify. No state is mutated in that case.
	ErrBadSignature = errors.New("invalid callback signature")
)
