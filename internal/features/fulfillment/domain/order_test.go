package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestOrder_Recipient verifies recipient resolution precedence.
func TestOrder_Recipient(t *testing.T) {
	t.Run("OrderEmailWins", func(t *testing.T) {
		o := Order{Email: "order@example.com", CustomerEmail: "customer@example.com"}
		assert.Equal(t, "order@example.com", o.Recipient())
	})

	t.Run("FallsBackToCustomerEmail", func(t *testing.T) {
		o := Order{CustomerEmail: "customer@example.com"}
		assert.Equal(t, "customer@example.com", o.Recipient())
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "", Order{}.Recipient())
	})
}

// TestProductEligibility_UnitAmount verifies the cost override rules.
func TestProductEligibility_UnitAmount(t *testing.T) {
	price := decimal.RequireFromString("25.00")

	t.Run("PositiveOverrideWins", func(t *testing.T) {
		override := decimal.RequireFromString("10.00")
		e := ProductEligibility{Enabled: true, CostAmount: &override}
		assert.True(t, e.UnitAmount(price).Equal(override))
	})

	t.Run("NoOverrideUsesPrice", func(t *testing.T) {
		e := ProductEligibility{Enabled: true}
		assert.True(t, e.UnitAmount(price).Equal(price))
	})

	t.Run("ZeroOverrideUsesPrice", func(t *testing.T) {
		zero := decimal.Zero
		e := ProductEligibility{Enabled: true, CostAmount: &zero}
		assert.True(t, e.UnitAmount(price).Equal(price))
	})

	t.Run("NegativeOverrideUsesPrice", func(t *testing.T) {
		neg := decimal.RequireFromString("-5.00")
		e := ProductEligibility{Enabled: true, CostAmount: &neg}
		assert.True(t, e.UnitAmount(price).Equal(price))
	})
}

// TestOutcome_Success verifies the success/error split of outcomes.
func TestOutcome_Success(t *testing.T) {
	success := []Outcome{OutcomeFulfilled, OutcomeAlreadyFulfilled, OutcomeNoRecipient, OutcomeNoEligibleItems}
	for _, o := range success {
		assert.True(t, o.Success(), string(o))
	}

	failure := []Outcome{OutcomeClaimHeld, OutcomeCommerceFailed, OutcomeIssuanceFailed, OutcomeNotificationFailed, OutcomeRecordFailed}
	for _, o := range failure {
		assert.False(t, o.Success(), string(o))
	}
}
