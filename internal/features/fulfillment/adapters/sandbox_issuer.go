package adapters

import (
	"context"
	"strings"

	"giftcard-fulfillment/internal/features/fulfillment/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SandboxIssuer implements the GiftCardIssuer interface without contacting
// any payment network. Results carry recognizable prefixes so a synthetic
// code can never be mistaken for a live one. Selecting this implementation
// is an explicit configuration decision; config validation refuses a process
// that combines sandbox mode with live payment credentials.
type SandboxIssuer struct{}

// NewSandboxIssuer creates a new instance of SandboxIssuer.
func NewSandboxIssuer() *SandboxIssuer {
	return &SandboxIssuer{}
}

// Issue returns a deterministic-shaped, randomly-valued synthetic result.
func (s *SandboxIssuer) Issue(ctx context.Context, currencyToken string, amount decimal.Decimal) (domain.GiftCardResult, error) {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))

	return domain.GiftCardResult{
		Code:        "TEST-" + raw[:16],
		ReferenceNo: "SBX" + raw[16:29],
	}, nil
}
