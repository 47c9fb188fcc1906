package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"giftcard-fulfillment/internal/core/config"
	"giftcard-fulfillment/internal/core/httpclient"
	"giftcard-fulfillment/internal/features/fulfillment/domain"
	"giftcard-fulfillment/internal/features/fulfillment/ports"

	"github.com/shopspring/decimal"
)

// MetafieldNamespace scopes every field this integration owns on the platform.
const MetafieldNamespace = "bngc"

// ShopifyAdapter implements the CommerceClient interface using the Shopify
// GraphQL Admin API.
type ShopifyAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// config holds the Shopify connection details.
	config config.ShopifyConfig
}

// NewShopifyAdapter creates a new instance of ShopifyAdapter.
func NewShopifyAdapter(cfg config.ShopifyConfig) *ShopifyAdapter {
	return &ShopifyAdapter{
		client: httpclient.NewClient(10 * time.Second),
		config: cfg,
	}
}

// IsOrderFulfilled reads the sent flag on the order's metafields. A missing
// metafield means the order has not been fulfilled.
func (a *ShopifyAdapter) IsOrderFulfilled(ctx context.Context, orderID string) (bool, error) {
	const query = `query($id: ID!) {
		order(id: $id) {
			metafield(namespace: "bngc", key: "sent") { value }
		}
	}`

	var out struct {
		Order *struct {
			Metafield *gqlMetafield `json:"metafield"`
		} `json:"order"`
	}

	vars := map[string]interface{}{"id": orderGID(orderID)}
	if err := a.doGraphQL(ctx, query, vars, &out); err != nil {
		return false, err
	}

	if out.Order == nil || out.Order.Metafield == nil {
		return false, nil
	}

	sent, err := strconv.ParseBool(out.Order.Metafield.Value)
	if err != nil {
		return false, nil
	}
	return sent, nil
}

// GetProductEligibility reads the enabled flag and optional cost override on
// the product's metafields. Missing or unparseable values resolve to
// not-enabled with no override.
func (a *ShopifyAdapter) GetProductEligibility(ctx context.Context, productID string) (domain.ProductEligibility, error) {
	const query = `query($id: ID!) {
		product(id: $id) {
			enabled: metafield(namespace: "bngc", key: "enabled") { value }
			costAmount: metafield(namespace: "bngc", key: "cost_amount") { value }
		}
	}`

	var out struct {
		Product *struct {
			Enabled    *gqlMetafield `json:"enabled"`
			CostAmount *gqlMetafield `json:"costAmount"`
		} `json:"product"`
	}

	vars := map[string]interface{}{"id": productGID(productID)}
	if err := a.doGraphQL(ctx, query, vars, &out); err != nil {
		return domain.ProductEligibility{}, err
	}

	var elig domain.ProductEligibility
	if out.Product == nil {
		return elig, nil
	}

	if out.Product.Enabled != nil {
		if enabled, err := strconv.ParseBool(out.Product.Enabled.Value); err == nil {
			elig.Enabled = enabled
		}
	}

	if out.Product.CostAmount != nil {
		if amount, err := decimal.NewFromString(out.Product.CostAmount.Value); err == nil {
			elig.CostAmount = &amount
		}
	}

	return elig, nil
}

// RecordFulfillment writes the three proof fields in a single metafieldsSet
// mutation: sent=true, the newline-joined masked references, and the current
// UTC timestamp. Any userError from the platform propagates; a partial write
// risks duplicate issuance or silent loss of proof.
func (a *ShopifyAdapter) RecordFulfillment(ctx context.Context, orderID string, maskedRefs []string) error {
	const mutation = `mutation($metafields: [MetafieldsSetInput!]!) {
		metafieldsSet(metafields: $metafields) {
			userErrors { field message }
		}
	}`

	ownerID := orderGID(orderID)
	metafields := []map[string]interface{}{
		{
			"ownerId":   ownerID,
			"namespace": MetafieldNamespace,
			"key":       "sent",
			"type":      "boolean",
			"value":     "true",
		},
		{
			"ownerId":   ownerID,
			"namespace": MetafieldNamespace,
			"key":       "reference_nos",
			"type":      "multi_line_text_field",
			"value":     strings.Join(maskedRefs, "\n"),
		},
		{
			"ownerId":   ownerID,
			"namespace": MetafieldNamespace,
			"key":       "sent_at",
			"type":      "date_time",
			"value":     time.Now().UTC().Format(time.RFC3339),
		},
	}

	var out struct {
		MetafieldsSet struct {
			UserErrors []gqlUserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}

	vars := map[string]interface{}{"metafields": metafields}
	if err := a.doGraphQL(ctx, mutation, vars, &out); err != nil {
		return err
	}

	if len(out.MetafieldsSet.UserErrors) > 0 {
		first := out.MetafieldsSet.UserErrors[0]
		return &ports.CommerceError{
			Detail: fmt.Sprintf("metafieldsSet rejected: %s (field %v)", first.Message, first.Field),
		}
	}

	return nil
}

// HealthCheck verifies that the Admin API is reachable and the token is valid.
func (a *ShopifyAdapter) HealthCheck(ctx context.Context) error {
	var out struct {
		Shop *struct {
			Name string `json:"name"`
		} `json:"shop"`
	}

	if err := a.doGraphQL(ctx, `query { shop { name } }`, nil, &out); err != nil {
		return fmt.Errorf("shopify health check failed: %w", err)
	}
	return nil
}

// doGraphQL executes one GraphQL request against the Admin API and decodes
// the data payload into out.
func (a *ShopifyAdapter) doGraphQL(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	base := a.config.ShopDomain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", base, a.config.APIVersion)

	reqBody, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return &ports.CommerceError{Detail: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return &ports.CommerceError{Detail: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return &ports.CommerceError{Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ports.CommerceError{Detail: fmt.Sprintf("admin API returned status %d", resp.StatusCode)}
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &ports.CommerceError{Detail: "failed to decode response", Err: err}
	}

	if len(envelope.Errors) > 0 {
		return &ports.CommerceError{Detail: envelope.Errors[0].Message}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &ports.CommerceError{Detail: "failed to decode data payload", Err: err}
		}
	}

	return nil
}

// orderGID builds the global ID the Admin API expects for an order.
func orderGID(orderID string) string {
	return "gid://shopify/Order/" + orderID
}

// productGID builds the global ID the Admin API expects for a product.
func productGID(productID string) string {
	return "gid://shopify/Product/" + productID
}

// internal structs for mapping

// gqlRequest is the GraphQL request envelope.
type gqlRequest struct {
	// Query is the GraphQL document.
	Query string `json:"query"`
	// Variables are the operation variables.
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// gqlResponse is the GraphQL response envelope.
type gqlResponse struct {
	// Data is the operation result, left raw for the caller to decode.
	Data json.RawMessage `json:"data"`
	// Errors holds transport-level GraphQL errors.
	Errors []gqlError `json:"errors"`
}

// gqlError is a GraphQL-level error entry.
type gqlError struct {
	// Message is the error description.
	Message string `json:"message"`
}

// gqlUserError is a mutation-level validation error.
type gqlUserError struct {
	// Field is the input path the error refers to.
	Field []string `json:"field"`
	// Message is the error description.
	Message string `json:"message"`
}

// gqlMetafield is a metafield value node.
type gqlMetafield struct {
	// Value is the stored metafield value as a string.
	Value string `json:"value"`
}
