package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"giftcard-fulfillment/internal/core/logger"
	"giftcard-fulfillment/internal/core/signature"
	"giftcard-fulfillment/internal/features/fulfillment/domain"
	"giftcard-fulfillment/internal/features/fulfillment/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HmacHeader is the signature header sent by the commerce platform.
const HmacHeader = "X-Shopify-Hmac-Sha256"

// Fulfiller runs the fulfillment pipeline for one authenticated order.
type Fulfiller interface {
	Fulfill(ctx context.Context, order domain.Order) (service.Result, error)
}

// WebhookHandler handles inbound order webhooks.
type WebhookHandler struct {
	// pipeline runs the fulfillment for each authenticated order.
	pipeline Fulfiller
	// sharedSecret verifies the webhook signature.
	sharedSecret string
}

// NewWebhookHandler creates a new instance of WebhookHandler.
func NewWebhookHandler(p Fulfiller, sharedSecret string) *WebhookHandler {
	return &WebhookHandler{
		pipeline:     p,
		sharedSecret: sharedSecret,
	}
}

// OrdersPaid handles the orders-paid webhook: verify the signature over the
// raw body, parse the order, run the pipeline, and map the outcome onto the
// response contract (200 for success and deliberate no-ops, 401 for signature
// failure, 500 otherwise).
func (h *WebhookHandler) OrdersPaid(c *fiber.Ctx) error {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	// c.Body() is the exact raw payload; verification must happen on these
	// bytes, never on a re-serialized form.
	rawBody := c.Body()
	if !signature.Verify(rawBody, c.Get(HmacHeader), h.sharedSecret) {
		logger.Get().Warn("Webhook signature verification failed",
			zap.String("ray_id", rayID),
		)
		return c.Status(http.StatusUnauthorized).SendString("signature verification failed")
	}

	order, err := parseOrderPayload(rawBody)
	if err != nil {
		logger.Get().Error("Failed to parse webhook payload",
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).SendString("invalid order payload")
	}

	result, err := h.pipeline.Fulfill(c.UserContext(), order)
	if err != nil {
		logger.Get().Error("Fulfillment failed",
			zap.String("order_id", order.ID),
			zap.String("ray_id", rayID),
			zap.String("outcome", string(result.Outcome)),
			zap.Error(err),
		)
		if errors.Is(err, service.ErrClaimHeld) {
			return c.Status(http.StatusInternalServerError).SendString("order is being processed")
		}
		return c.Status(http.StatusInternalServerError).SendString(statusText(result.Outcome))
	}

	return c.Status(http.StatusOK).SendString(statusText(result.Outcome))
}

// statusText maps an outcome to the short human-readable response body.
func statusText(o domain.Outcome) string {
	switch o {
	case domain.OutcomeFulfilled:
		return "gift cards issued and emailed"
	case domain.OutcomeAlreadyFulfilled:
		return "order already fulfilled"
	case domain.OutcomeNoRecipient:
		return "no recipient email on order"
	case domain.OutcomeNoEligibleItems:
		return "no eligible items"
	case domain.OutcomeIssuanceFailed:
		return "gift card issuance failed"
	case domain.OutcomeNotificationFailed:
		return "notification delivery failed"
	case domain.OutcomeRecordFailed:
		return "failed to record fulfillment"
	case domain.OutcomeCommerceFailed:
		return "commerce platform error"
	default:
		return "processing error"
	}
}

// wire structs for the platform-native order payload

// orderPayload represents the JSON body of an orders-paid webhook.
type orderPayload struct {
	// ID is the numeric platform order ID.
	ID int64 `json:"id"`
	// Email is the order-level contact email.
	Email string `json:"email"`
	// Customer holds the nested customer record.
	Customer customerPayload `json:"customer"`
	// LineItems are the purchased lines, in order.
	LineItems []lineItemPayload `json:"line_items"`
}

// customerPayload holds the nested customer fields we care about.
type customerPayload struct {
	// Email is the customer's email address.
	Email string `json:"email"`
}

// lineItemPayload represents one purchased line in the webhook body.
type lineItemPayload struct {
	// ProductID is the platform product ID; null for custom lines.
	ProductID *int64 `json:"product_id"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
	// Price is the per-unit price as a decimal string.
	Price string `json:"price"`
}

// parseOrderPayload decodes the webhook body into the domain order.
func parseOrderPayload(rawBody []byte) (domain.Order, error) {
	var payload orderPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:            strconv.FormatInt(payload.ID, 10),
		Email:         payload.Email,
		CustomerEmail: payload.Customer.Email,
		LineItems:     make([]domain.LineItem, 0, len(payload.LineItems)),
	}

	for _, item := range payload.LineItems {
		var productID string
		if item.ProductID != nil {
			productID = strconv.FormatInt(*item.ProductID, 10)
		}

		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			// A malformed price resolves to zero and falls out at the
			// eligibility step unless a cost override applies.
			logger.Get().Warn("Unparseable line item price",
				zap.String("order_id", order.ID),
				zap.String("price", item.Price),
			)
			price = decimal.Zero
		}

		order.LineItems = append(order.LineItems, domain.LineItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	return order, nil
}
