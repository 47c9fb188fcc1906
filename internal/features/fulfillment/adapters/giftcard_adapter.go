package adapters

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"giftcard-fulfillment/internal/core/config"
	"giftcard-fulfillment/internal/core/httpclient"
	"giftcard-fulfillment/internal/features/fulfillment/domain"
	"giftcard-fulfillment/internal/features/fulfillment/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GiftCardAPIAdapter implements the GiftCardIssuer interface against the
// payments platform's issuance API. Requests are authenticated by an HMAC
// signature over the canonicalized request parameters.
type GiftCardAPIAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the payments API connection details.
	config config.PaymentsConfig
}

// NewGiftCardAPIAdapter creates a new instance of GiftCardAPIAdapter.
func NewGiftCardAPIAdapter(cfg config.PaymentsConfig) *GiftCardAPIAdapter {
	return &GiftCardAPIAdapter{
		client: httpclient.NewClient(15 * time.Second),
		config: cfg,
	}
}

// Issue requests one independently redeemable code for exactly the given
// amount. Calls are never batched; callers needing N codes call N times.
func (a *GiftCardAPIAdapter) Issue(ctx context.Context, currencyToken string, amount decimal.Decimal) (domain.GiftCardResult, error) {
	params := map[string]string{
		"merchant_id":    a.config.MerchantID,
		"currency_token": currencyToken,
		"amount":         amount.String(),
		"nonce":          uuid.NewString(),
		"timestamp":      strconv.FormatInt(time.Now().Unix(), 10),
	}
	params["sign"] = signParams(params, a.config.SigningSecret)

	reqBody, err := json.Marshal(params)
	if err != nil {
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: "failed to encode request", Err: err}
	}

	url := a.config.BaseURL + "/v1/giftcards/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: fmt.Sprintf("issuance API returned status %d", resp.StatusCode)}
	}

	var envelope issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: "failed to decode response", Err: err}
	}

	if envelope.Status != "ok" {
		detail := envelope.Message
		if detail == "" {
			detail = fmt.Sprintf("non-success status %q", envelope.Status)
		}
		return domain.GiftCardResult{}, &ports.IssuanceError{Detail: detail}
	}

	result := domain.GiftCardResult{
		Code:        envelope.Data.Code,
		ReferenceNo: envelope.Data.ReferenceNo,
	}
	if envelope.Data.ExpiredTime != "" {
		if expiry, err := time.Parse(time.RFC3339, envelope.Data.ExpiredTime); err == nil {
			result.ExpiredTime = &expiry
		}
	}

	return result, nil
}

// signParams computes the request signature: HMAC-SHA256 over the
// ampersand-joined key=value pairs in ascending key order, hex encoded.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "sign" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// internal structs for mapping

// issueResponse is the issuance API response envelope.
type issueResponse struct {
	// Status is "ok" on success.
	Status string `json:"status"`
	// Message carries the error description on failure.
	Message string `json:"message"`
	// Data holds the issued card on success.
	Data issueData `json:"data"`
}

// issueData is the issued-card payload.
type issueData struct {
	// Code is the secret redeemable code.
	Code string `json:"code"`
	// ReferenceNo is the issuance reference.
	ReferenceNo string `json:"referenceNo"`
	// ExpiredTime is the optional expiry as an RFC3339 timestamp.
	ExpiredTime string `json:"expiredTime"`
}
