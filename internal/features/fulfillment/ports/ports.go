package ports

import (
	"context"

	"giftcard-fulfillment/internal/features/fulfillment/domain"

	"github.com/shopspring/decimal"
)

// CommerceClient defines the interface over the commerce platform's order and
// product metadata. This is a Secondary Port (Driven Port).
type CommerceClient interface {
	// IsOrderFulfilled reads the integration's sent flag on the order.
	// A missing flag means not fulfilled.
	IsOrderFulfilled(ctx context.Context, orderID string) (bool, error)
	// GetProductEligibility reads the integration's eligibility fields on a
	// product. Missing or unparseable values resolve to not-enabled with no
	// cost override.
	GetProductEligibility(ctx context.Context, productID string) (domain.ProductEligibility, error)
	// RecordFulfillment writes the proof-of-delivery fields on the order:
	// sent=true, the newline-joined masked references, and the sent-at
	// timestamp. Any rejected write must propagate.
	RecordFulfillment(ctx context.Context, orderID string, maskedRefs []string) error
}

// GiftCardIssuer defines the interface over the payments platform. Each call
// produces one independently redeemable code for exactly the given amount;
// calls are never batched.
type GiftCardIssuer interface {
	Issue(ctx context.Context, currencyToken string, amount decimal.Decimal) (domain.GiftCardResult, error)
}

// Notifier delivers the single per-order message containing every issued code.
type Notifier interface {
	Send(ctx context.Context, msg domain.Notification) error
}

// OrderClaimer provides a short-lived exclusive claim per order, guarding
// against concurrent duplicate deliveries while a fulfillment is in flight.
type OrderClaimer interface {
	// Acquire returns false when another delivery already holds the claim.
	Acquire(ctx context.Context, orderID string) (bool, error)
	// Release frees the claim.
	Release(ctx context.Context, orderID string) error
}
