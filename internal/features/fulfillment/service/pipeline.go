package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftcard-fulfillment/internal/core/logger"
	"giftcard-fulfillment/internal/features/fulfillment/domain"
	"giftcard-fulfillment/internal/features/fulfillment/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrClaimHeld is returned when a concurrent delivery of the same order holds
// the in-flight claim. The sender's redelivery will land after the first
// delivery settles and resolve via the sent flag.
var ErrClaimHeld = errors.New("order is already being processed")

// Result describes the terminal state of one fulfillment attempt.
type Result struct {
	// Outcome is the terminal state reached.
	Outcome domain.Outcome
	// Codes are the issued codes, in issuance order. Secret; populated so
	// failure paths stay observable, never persisted to the platform.
	Codes []string
	// MaskedRefs are the masked issuance references, parallel to Codes.
	MaskedRefs []string
	// AmountPerCode is the representative per-code amount (last-processed
	// item's amount for mixed orders).
	AmountPerCode decimal.Decimal
}

// eligibleLine is a line item that survived eligibility resolution.
type eligibleLine struct {
	item   domain.LineItem
	amount decimal.Decimal
}

// Pipeline orchestrates fulfillment for a paid order: idempotency check,
// eligibility resolution, per-unit issuance, the single customer
// notification, and proof recording. All collaborator calls are strictly
// sequential; ordering of issued codes and masked references must match
// line-item order.
type Pipeline struct {
	commerce      ports.CommerceClient
	issuer        ports.GiftCardIssuer
	notifier      ports.Notifier
	claimer       ports.OrderClaimer
	currencyToken string
}

// NewPipeline creates a new fulfillment Pipeline. claimer may be nil, in
// which case concurrent duplicate deliveries are only guarded by the
// platform-side sent flag.
func NewPipeline(commerce ports.CommerceClient, issuer ports.GiftCardIssuer, notifier ports.Notifier, claimer ports.OrderClaimer, currencyToken string) *Pipeline {
	return &Pipeline{
		commerce:      commerce,
		issuer:        issuer,
		notifier:      notifier,
		claimer:       claimer,
		currencyToken: currencyToken,
	}
}

// Fulfill runs the pipeline for one authenticated order. The caller has
// already verified the webhook signature; nothing here runs for
// unauthenticated traffic.
func (p *Pipeline) Fulfill(ctx context.Context, order domain.Order) (Result, error) {
	l := logger.Get().With(zap.String("order_id", order.ID))

	if p.claimer != nil {
		acquired, err := p.claimer.Acquire(ctx, order.ID)
		if err != nil {
			// Claim store outage must not block fulfillment; the sent
			// flag remains the durable source of truth.
			l.Warn("Claim store unavailable, proceeding without claim", zap.Error(err))
		} else if !acquired {
			l.Info("Duplicate delivery while order is in flight")
			return Result{Outcome: domain.OutcomeClaimHeld}, ErrClaimHeld
		} else {
			defer func() {
				if err := p.claimer.Release(context.WithoutCancel(ctx), order.ID); err != nil {
					l.Warn("Failed to release order claim", zap.Error(err))
				}
			}()
		}
	}

	fulfilled, err := p.commerce.IsOrderFulfilled(ctx, order.ID)
	if err != nil {
		return Result{Outcome: domain.OutcomeCommerceFailed}, fmt.Errorf("failed to check fulfillment state: %w", err)
	}
	if fulfilled {
		l.Info("Order already fulfilled, skipping")
		return Result{Outcome: domain.OutcomeAlreadyFulfilled}, nil
	}

	recipient := order.Recipient()
	if recipient == "" {
		l.Info("Order has no recipient email, nothing to send")
		return Result{Outcome: domain.OutcomeNoRecipient}, nil
	}

	lines, err := p.resolveEligibleLines(ctx, order)
	if err != nil {
		return Result{Outcome: domain.OutcomeCommerceFailed}, fmt.Errorf("failed to resolve eligible items: %w", err)
	}
	if len(lines) == 0 {
		l.Info("Order has no eligible items")
		return Result{Outcome: domain.OutcomeNoEligibleItems}, nil
	}

	batch, issueErr := p.issueCodes(ctx, lines)
	if issueErr != nil {
		l.Error("Issuance halted",
			zap.Int("issued_before_failure", len(batch.Codes)),
			zap.Error(issueErr),
		)
		// Codes issued before the failure were already paid for; they must
		// still reach the customer if at all possible.
		if len(batch.Codes) > 0 {
			p.notifyBestEffort(ctx, l, order, recipient, batch)
		}
		return Result{
			Outcome:       domain.OutcomeIssuanceFailed,
			Codes:         batch.Codes,
			MaskedRefs:    batch.MaskedRefs,
			AmountPerCode: batch.AmountPerCode,
		}, issueErr
	}

	notification := domain.Notification{
		Recipient:     recipient,
		OrderID:       order.ID,
		Codes:         batch.Codes,
		AmountPerCode: batch.AmountPerCode,
		ExpiredTime:   batch.ExpiredTime,
	}
	if err := p.notifier.Send(ctx, notification); err != nil {
		// The codes exist and are non-refundable. Log the full list so an
		// operator can resend manually; this is the one place unmasked
		// codes may appear outside the notification itself.
		l.Error("Notification failed, issued codes require manual resend",
			zap.String("recipient", recipient),
			zap.Strings("codes", batch.Codes),
			zap.Strings("reference_nos", batch.MaskedRefs),
			zap.Error(err),
		)
		return Result{
			Outcome:       domain.OutcomeNotificationFailed,
			Codes:         batch.Codes,
			MaskedRefs:    batch.MaskedRefs,
			AmountPerCode: batch.AmountPerCode,
		}, err
	}

	if err := p.commerce.RecordFulfillment(ctx, order.ID, batch.MaskedRefs); err != nil {
		// Codes are delivered but the sent flag did not take: a redelivery
		// would re-issue and re-email. Surface loudly for operator attention.
		l.Error("Codes delivered but fulfillment proof not recorded",
			zap.Strings("reference_nos", batch.MaskedRefs),
			zap.Error(err),
		)
		return Result{
			Outcome:       domain.OutcomeRecordFailed,
			Codes:         batch.Codes,
			MaskedRefs:    batch.MaskedRefs,
			AmountPerCode: batch.AmountPerCode,
		}, err
	}

	l.Info("Order fulfilled",
		zap.Int("codes_issued", len(batch.Codes)),
		zap.String("amount_per_code", batch.AmountPerCode.String()),
	)
	return Result{
		Outcome:       domain.OutcomeFulfilled,
		Codes:         batch.Codes,
		MaskedRefs:    batch.MaskedRefs,
		AmountPerCode: batch.AmountPerCode,
	}, nil
}

// resolveEligibleLines filters line items down to the issuable ones, in
// payload order: items with a product ID, an enabled eligibility flag, and a
// positive resolved unit amount.
func (p *Pipeline) resolveEligibleLines(ctx context.Context, order domain.Order) ([]eligibleLine, error) {
	var lines []eligibleLine

	for _, item := range order.LineItems {
		if item.ProductID == "" {
			continue
		}

		elig, err := p.commerce.GetProductEligibility(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !elig.Enabled {
			continue
		}

		amount := elig.UnitAmount(item.UnitPrice)
		if !amount.IsPositive() {
			continue
		}

		lines = append(lines, eligibleLine{item: item, amount: amount})
	}

	return lines, nil
}

// issuedBatch accumulates the output of the issuance loop.
type issuedBatch struct {
	Codes         []string
	MaskedRefs    []string
	AmountPerCode decimal.Decimal
	ExpiredTime   *time.Time
}

// issueCodes issues one code per unit, strictly sequential in
// line-item-then-quantity order. On failure it returns whatever was issued so
// far together with the error.
func (p *Pipeline) issueCodes(ctx context.Context, lines []eligibleLine) (issuedBatch, error) {
	var batch issuedBatch

	for _, line := range lines {
		batch.AmountPerCode = line.amount
		for i := 0; i < line.item.Quantity; i++ {
			res, err := p.issuer.Issue(ctx, p.currencyToken, line.amount)
			if err != nil {
				return batch, err
			}
			batch.Codes = append(batch.Codes, res.Code)
			batch.MaskedRefs = append(batch.MaskedRefs, domain.MaskReference(res.ReferenceNo))
			batch.ExpiredTime = res.ExpiredTime
		}
	}

	return batch, nil
}

// notifyBestEffort tries to deliver partially-issued codes after an issuance
// failure. Its own failure is logged with the full code list and otherwise
// swallowed; the caller already carries the issuance error.
func (p *Pipeline) notifyBestEffort(ctx context.Context, l *zap.Logger, order domain.Order, recipient string, batch issuedBatch) {
	notification := domain.Notification{
		Recipient:     recipient,
		OrderID:       order.ID,
		Codes:         batch.Codes,
		AmountPerCode: batch.AmountPerCode,
		ExpiredTime:   batch.ExpiredTime,
	}
	if err := p.notifier.Send(ctx, notification); err != nil {
		l.Error("Partial codes could not be emailed, manual resend required",
			zap.String("recipient", recipient),
			zap.Strings("codes", batch.Codes),
			zap.Error(err),
		)
		return
	}
	l.Info("Partial codes emailed after issuance failure",
		zap.Int("codes_sent", len(batch.Codes)),
	)
}
