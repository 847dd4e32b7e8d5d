package controller

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// InitStripe sets the API key for the Stripe SDK.
func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

// CreateDepositIntent creates a Stripe PaymentIntent for a wallet deposit
// and a matching pending ledger row. The row flips to completed through the
// webhook; pending deposits never count toward the balance.
func CreateDepositIntent(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}
	if config.AppConfig.StripeSecretKey == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card deposits are not configured",
		})
	}

	var input struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(input.Amount * 100)),
		Currency: stripe.String("ngn"),
		Metadata: map[string]string{
			"employer_id": strconv.Itoa(int(user.ID)),
			"purpose":     "wallet_deposit",
		},
		Description: stripe.String("Wallet deposit"),
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		utils.LogError("stripe_intent", err, map[string]interface{}{"employer_id": user.ID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start deposit",
		})
	}

	payment := models.Payment{
		EmployerID:            utils.Pointer(user.ID),
		Amount:                input.Amount,
		Currency:              "NGN",
		Type:                  models.PaymentTypeDeposit,
		Status:                models.PaymentStatusPending,
		StripePaymentIntentID: pi.ID,
	}
	if err := config.DB.Create(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record deposit",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"clientSecret": pi.ClientSecret,
		"payment_id":   payment.ID,
		"amount":       payment.Amount,
		"currency":     payment.Currency,
	})
}

// HandleDepositWebhook resolves pending deposits from Stripe events.
func HandleDepositWebhook(c *fiber.Ctx) error {
	event, err := utils.ConstructStripeEvent(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return resolveDeposit(c, pi.ID, models.PaymentStatusCompleted)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Error parsing payment intent",
			})
		}
		return resolveDeposit(c, pi.ID, models.PaymentStatusFailed)

	default:
		return c.SendStatus(fiber.StatusOK)
	}
}

func resolveDeposit(c *fiber.Ctx, intentID, status string) error {
	var payment models.Payment
	if err := config.DB.Where("stripe_payment_intent_id = ?", intentID).First(&payment).Error; err != nil {
		// Unknown intent: acknowledge so Stripe stops retrying
		utils.LogEvent("stripe_webhook_unmatched", map[string]interface{}{"intent_id": intentID})
		return c.SendStatus(fiber.StatusOK)
	}
	if payment.Status != models.PaymentStatusPending {
		return c.SendStatus(fiber.StatusOK)
	}

	payment.Status = status
	if err := config.DB.Save(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update deposit",
		})
	}

	if status == models.PaymentStatusCompleted && payment.EmployerID != nil {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  *payment.EmployerID,
			Title:   "Deposit completed",
			Message: "Your wallet deposit was confirmed",
			Type:    models.NotificationTypeSystem,
			Meta:    map[string]interface{}{"payment_id": payment.ID},
		}); err != nil {
			utils.LogError("notify_deposit", err, map[string]interface{}{"payment_id": payment.ID})
		}
	}

	return c.SendStatus(fiber.StatusOK)
}
