package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

var errInsufficientBalance = errors.New("insufficient balance")

// sumPayments totals completed ledger rows matching the given scope column.
func sumPayments(db *gorm.DB, column string, userID uint, paymentType string) float64 {
	var total float64
	db.Model(&models.Payment{}).
		Where(column+" = ? AND type = ? AND status = ?", userID, paymentType, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total)
	return total
}

// employerBalance derives the wallet balance from the ledger. Pending
// deposits do not count.
func employerBalance(db *gorm.DB, employerID uint) float64 {
	deposits := sumPayments(db, "employer_id", employerID, models.PaymentTypeDeposit)
	spent := sumPayments(db, "employer_id", employerID, models.PaymentTypeEarning)
	balance := deposits - spent
	if balance < 0 {
		return 0
	}
	return balance
}

// EmployerDashboard aggregates the employer home screen.
func EmployerDashboard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}

	var activeProjects []models.Project
	config.DB.Preload("AssignedTo").
		Where("created_by_id = ? AND status = ?", user.ID, models.ProjectStatusActive).
		Order("created_at DESC").Limit(10).
		Find(&activeProjects)

	var pendingMilestones int64
	config.DB.Model(&models.Milestone{}).
		Joins("JOIN projects ON projects.id = milestones.project_id").
		Where("projects.created_by_id = ? AND milestones.status = ?", user.ID, models.MilestoneStatusSubmitted).
		Count(&pendingMilestones)

	var openPaymentRequests int64
	config.DB.Model(&models.ProjectEvent{}).
		Joins("JOIN projects ON projects.id = project_events.project_id").
		Where("projects.created_by_id = ? AND project_events.type = ?", user.ID, models.EventPaymentRequest).
		Where("project_events.id NOT IN (?)",
			config.DB.Model(&models.ProjectEvent{}).
				Select("ref_event_id").
				Where("type = ? AND ref_event_id IS NOT NULL", models.EventPaymentRelease)).
		Count(&openPaymentRequests)

	var newProposals int64
	config.DB.Model(&models.Invite{}).
		Where("employer_id = ? AND type = ? AND status = ?", user.ID, models.InviteTypeApplication, models.InviteStatusApplied).
		Count(&newProposals)

	var recentApplications []models.Invite
	config.DB.Preload("Worker").Preload("Job").
		Where("employer_id = ? AND type = ?", user.ID, models.InviteTypeApplication).
		Order("created_at DESC").Limit(5).
		Find(&recentApplications)

	weekAgo := time.Now().AddDate(0, 0, -7)
	var recentMessages int64
	config.DB.Model(&models.ProjectMessage{}).
		Joins("JOIN projects ON projects.id = project_messages.project_id").
		Where("projects.created_by_id = ? AND project_messages.created_at >= ?", user.ID, weekAgo).
		Where("project_messages.sender_id <> ?", user.ID).
		Count(&recentMessages)

	return c.JSON(fiber.Map{
		"active_projects":      activeProjects,
		"pending_approvals":    pendingMilestones + openPaymentRequests,
		"new_proposals":        newProposals,
		"recent_applications":  recentApplications,
		"messages_last_7_days": recentMessages,
	})
}

// EmployerPaymentsOverview reports the derived wallet state.
func EmployerPaymentsOverview(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}

	totalSpent := sumPayments(config.DB, "employer_id", user.ID, models.PaymentTypeEarning)

	var pendingPayments float64
	config.DB.Model(&models.ProjectEvent{}).
		Joins("JOIN projects ON projects.id = project_events.project_id").
		Where("projects.created_by_id = ? AND project_events.type = ?", user.ID, models.EventPaymentRequest).
		Where("project_events.id NOT IN (?)",
			config.DB.Model(&models.ProjectEvent{}).
				Select("ref_event_id").
				Where("type = ? AND ref_event_id IS NOT NULL", models.EventPaymentRelease)).
		Select("COALESCE(SUM(project_events.amount), 0)").
		Scan(&pendingPayments)

	return c.JSON(fiber.Map{
		"account_balance":  employerBalance(config.DB, user.ID),
		"total_spent":      totalSpent,
		"pending_payments": pendingPayments,
	})
}

// EmployerPaymentsHistory lists the employer's earning payouts, newest first.
func EmployerPaymentsHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Payment{}).
		Preload("Worker").Preload("Project").
		Where("employer_id = ?", user.ID)
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	query.Count(&p.Total)

	var payments []models.Payment
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch payments",
		})
	}

	return c.JSON(fiber.Map{"payments": payments, "meta": p})
}

// WalletDeposit records a completed deposit directly. Used for out-of-band
// funding; card deposits go through the Stripe intent flow.
func WalletDeposit(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}

	var input struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
		Note   string  `json:"note"`
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

	payment := models.Payment{
		EmployerID: utils.Pointer(user.ID),
		Amount:     input.Amount,
		Currency:   "NGN",
		Type:       models.PaymentTypeDeposit,
		Status:     models.PaymentStatusCompleted,
		Note:       input.Note,
	}
	if err := config.DB.Create(&payment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record deposit",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment":         payment,
		"account_balance": employerBalance(config.DB, user.ID),
	})
}

// PayWorker releases money to the assigned worker. The balance check and the
// ledger insert run in one transaction so concurrent releases cannot
// overdraw the wallet.
func PayWorker(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := config.DB.First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if project.CreatedByID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project owner can release payments",
		})
	}
	if project.AssignedToID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project has no assigned worker",
		})
	}

	var input struct {
		Amount  float64 `json:"amount" validate:"required,gt=0"`
		EventID *uint   `json:"event_id"`
		Note    string  `json:"note"`
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

	var payment models.Payment
	var release models.ProjectEvent
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if employerBalance(tx, user.ID) < input.Amount {
			return errInsufficientBalance
		}

		var refEventID *uint
		if input.EventID != nil {
			var request models.ProjectEvent
			if err := tx.Where("project_id = ? AND type = ?", project.ID, models.EventPaymentRequest).
				First(&request, *input.EventID).Error; err != nil {
				return fmt.Errorf("payment request not found: %w", err)
			}
			refEventID = utils.Pointer(request.ID)
		}

		payment = models.Payment{
			WorkerID:   project.AssignedToID,
			EmployerID: utils.Pointer(user.ID),
			ProjectID:  utils.Pointer(project.ID),
			Amount:     input.Amount,
			Currency:   project.Currency,
			Type:       models.PaymentTypeEarning,
			Status:     models.PaymentStatusCompleted,
			Note:       input.Note,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		release = models.ProjectEvent{
			ProjectID:   project.ID,
			CreatedByID: user.ID,
			Type:        models.EventPaymentRelease,
			Amount:      input.Amount,
			PaymentID:   utils.Pointer(payment.ID),
			RefEventID:  refEventID,
		}
		return tx.Create(&release).Error
	})
	if err == errInsufficientBalance {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Insufficient wallet balance",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to release payment",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  *project.AssignedToID,
		Title:   "Payment released",
		Message: fmt.Sprintf("You received %.2f %s on %q", payment.Amount, payment.Currency, project.Title),
		Type:    models.NotificationTypeProject,
		Link:    fmt.Sprintf("/app/projects/%d", project.ID),
		Meta:    map[string]interface{}{"project_id": project.ID, "payment_id": payment.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_payment_released", err, map[string]interface{}{"payment_id": payment.ID})
	}

	broadcastProjectUpdate(project.ID, "event", release)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment": payment,
		"event":   release,
	})
}
