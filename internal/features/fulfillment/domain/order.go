package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome represents the terminal state of a fulfillment attempt.
type Outcome string

const (
	// OutcomeFulfilled indicates codes were issued, emailed, and proof recorded.
	OutcomeFulfilled Outcome = "FULFILLED"
	// OutcomeAlreadyFulfilled indicates the order was fulfilled by an earlier delivery.
	OutcomeAlreadyFulfilled Outcome = "ALREADY_FULFILLED"
	// OutcomeNoRecipient indicates the order carries no resolvable customer email.
	OutcomeNoRecipient Outcome = "NO_RECIPIENT"
	// OutcomeNoEligibleItems indicates no line item qualified for issuance.
	OutcomeNoEligibleItems Outcome = "NO_ELIGIBLE_ITEMS"
	// OutcomeClaimHeld indicates a concurrent delivery of the same order is in flight.
	OutcomeClaimHeld Outcome = "CLAIM_HELD"
	// OutcomeCommerceFailed indicates a platform read or write failed before issuance.
	OutcomeCommerceFailed Outcome = "COMMERCE_FAILED"
	// OutcomeIssuanceFailed indicates gift-card issuance stopped on an error.
	OutcomeIssuanceFailed Outcome = "ISSUANCE_FAILED"
	// OutcomeNotificationFailed indicates codes were issued but the email failed.
	OutcomeNotificationFailed Outcome = "NOTIFICATION_FAILED"
	// OutcomeRecordFailed indicates codes were delivered but proof could not be recorded.
	OutcomeRecordFailed Outcome = "RECORD_FAILED"
)

// Success reports whether an outcome is a deliberate no-op or a completed
// fulfillment, as opposed to an error state.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeFulfilled, OutcomeAlreadyFulfilled, OutcomeNoRecipient, OutcomeNoEligibleItems:
		return true
	default:
		return false
	}
}

// Order represents a paid order as delivered by the webhook. All fields are
// transient; the commerce platform remains the system of record.
type Order struct {
	// ID is the opaque platform identifier of the order.
	ID string
	// Email is the order-level contact email, when present.
	Email string
	// CustomerEmail is the email nested under the customer record, when present.
	CustomerEmail string
	// LineItems are the purchased items in payload order.
	LineItems []LineItem
}

// Recipient resolves the notification address: the order-level email first,
// then the nested customer email. Empty means there is nobody to notify and
// nothing should be issued.
func (o Order) Recipient() string {
	if o.Email != "" {
		return o.Email
	}
	return o.CustomerEmail
}

// LineItem represents a purchased product line. Read-only, supplied by the
// webhook payload.
type LineItem struct {
	// ProductID is the platform product identifier; empty when the line has none.
	ProductID string
	// Quantity is the number of units purchased.
	Quantity int
	// UnitPrice is the per-unit price from the payload.
	UnitPrice decimal.Decimal
}

// ProductEligibility controls whether and at what amount gift cards are
// issued for a product's line items.
type ProductEligibility struct {
	// Enabled gates issuance for the product. Absence of an explicit
	// enabled flag on the platform means not eligible.
	Enabled bool
	// CostAmount optionally overrides the line-item price as the issuance amount.
	CostAmount *decimal.Decimal
}

// UnitAmount resolves the per-code amount for a line: the cost override when
// positive, otherwise the line's unit price.
func (e ProductEligibility) UnitAmount(unitPrice decimal.Decimal) decimal.Decimal {
	if e.CostAmount != nil && e.CostAmount.IsPositive() {
		return *e.CostAmount
	}
	return unitPrice
}

// GiftCardResult is the outcome of a single issuance call.
type GiftCardResult struct {
	// Code is the secret redeemable value. It must never be persisted to
	// the commerce platform and only reaches the customer notification.
	Code string
	// ReferenceNo is the semi-opaque issuance reference, safe to persist masked.
	ReferenceNo string
	// ExpiredTime is the optional expiry of the code, informational only.
	ExpiredTime *time.Time
}

// Notification is the single message delivered per fulfilled order. Codes are
// never split across messages.
type Notification struct {
	// Recipient is the customer email address.
	Recipient string
	// OrderID identifies the order the codes belong to.
	OrderID string
	// Codes holds every issued code, in issuance order.
	Codes []string
	// AmountPerCode is the representative per-code amount shown to the
	// customer. For mixed-amount orders this is the last-processed item's
	// amount; a known display limitation, kept as-is.
	AmountPerCode decimal.Decimal
	// ExpiredTime is the optional expiry carried from the last issuance.
	ExpiredTime *time.Time
}
