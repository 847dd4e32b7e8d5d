package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"skilllink/config"
)

// ConstructStripeEvent verifies a Stripe webhook request and returns the
// parsed event.
func ConstructStripeEvent(c *fiber.Ctx) (stripe.Event, error) {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Missing Stripe-Signature header")
	}

	// 5 minute tolerance for clock drift
	event, err := webhook.ConstructEventWithTolerance(
		c.Body(),
		signature,
		config.AppConfig.StripeWebhookSecret,
		5*time.Minute,
	)
	if err != nil {
		LogError("stripe_webhook_signature", err, map[string]interface{}{
			"signature_prefix": signature[:min(10, len(signature))],
		})
		return stripe.Event{}, fiber.NewError(fiber.StatusBadRequest, "Invalid webhook signature")
	}

	LogEvent("stripe_webhook_verified", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	})

	return event, nil
}
