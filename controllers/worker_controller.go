package controller

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// workerBalance derives the withdrawable balance: completed earnings minus
// completed and pending withdrawals, never below zero.
func workerBalance(db *gorm.DB, workerID uint) float64 {
	earnings := sumPayments(db, "worker_id", workerID, models.PaymentTypeEarning)

	var withdrawals float64
	db.Model(&models.Payment{}).
		Where("worker_id = ? AND type = ? AND status IN ?", workerID,
			models.PaymentTypeWithdrawal,
			[]string{models.PaymentStatusCompleted, models.PaymentStatusPending}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&withdrawals)

	balance := earnings - withdrawals
	if balance < 0 {
		return 0
	}
	return balance
}

// ListWorkers is the public worker search. Results are sorted by rating.
func ListWorkers(c *fiber.Ctx) error {
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.User{}).
		Where("account_type = ? AND is_active = ?", models.AccountTypeWorker, true)

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"name LIKE ? OR worker_professional_title LIKE ? OR worker_short_bio LIKE ?",
			like, like, like,
		)
	}
	if skills := c.Query("skills"); skills != "" {
		for _, skill := range utils.SplitList(skills) {
			query = query.Where("worker_primary_skills LIKE ?", "%"+skill+"%")
		}
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("worker_location LIKE ?", "%"+location+"%")
	}
	if minRate := c.Query("min_rate"); minRate != "" {
		if v, err := strconv.ParseFloat(minRate, 64); err == nil {
			query = query.Where("worker_hourly_rate >= ?", v)
		}
	}
	if maxRate := c.Query("max_rate"); maxRate != "" {
		if v, err := strconv.ParseFloat(maxRate, 64); err == nil {
			query = query.Where("worker_hourly_rate <= ?", v)
		}
	}
	if availability := c.Query("availability"); availability != "" {
		query = query.Where("worker_availability = ?", availability)
	}
	if minRating := c.Query("min_rating"); minRating != "" {
		if v, err := strconv.ParseFloat(minRating, 64); err == nil {
			query = query.Where("worker_rating >= ?", v)
		}
	}

	query.Count(&p.Total)

	var workers []models.User
	if err := query.Order("worker_rating DESC, id ASC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&workers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch workers",
		})
	}

	return c.JSON(fiber.Map{"workers": workers, "meta": p})
}

// WorkersMeta returns the filter vocabulary for the worker search UI.
func WorkersMeta(c *fiber.Ctx) error {
	var rows []struct {
		Skills       string
		Location     string
		Availability string
	}
	config.DB.Model(&models.User{}).
		Where("account_type = ? AND is_active = ?", models.AccountTypeWorker, true).
		Select("worker_primary_skills AS skills, worker_location AS location, worker_availability AS availability").
		Scan(&rows)

	skillSet := make(map[string]struct{})
	locationSet := make(map[string]struct{})
	availabilitySet := make(map[string]struct{})
	for _, row := range rows {
		if row.Skills != "" {
			var skills []string
			if err := json.Unmarshal([]byte(row.Skills), &skills); err == nil {
				for _, s := range skills {
					skillSet[s] = struct{}{}
				}
			}
		}
		if row.Location != "" {
			locationSet[row.Location] = struct{}{}
		}
		if row.Availability != "" {
			availabilitySet[row.Availability] = struct{}{}
		}
	}

	var rates struct {
		Min float64
		Max float64
	}
	config.DB.Model(&models.User{}).
		Where("account_type = ? AND is_active = ? AND worker_hourly_rate > 0", models.AccountTypeWorker, true).
		Select("COALESCE(MIN(worker_hourly_rate), 0) AS min, COALESCE(MAX(worker_hourly_rate), 0) AS max").
		Scan(&rates)

	return c.JSON(fiber.Map{
		"skills":         sortedKeys(skillSet),
		"locations":      sortedKeys(locationSet),
		"availabilities": sortedKeys(availabilitySet),
		"hourly_rate":    fiber.Map{"min": rates.Min, "max": rates.Max},
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GetWorker returns one active worker's public profile.
func GetWorker(c *fiber.Ctx) error {
	var worker models.User
	err := config.DB.
		Where("account_type = ? AND is_active = ?", models.AccountTypeWorker, true).
		First(&worker, utils.ParseUint(c.Params("id"))).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Worker not found",
		})
	}
	return c.JSON(fiber.Map{"worker": worker})
}

// WorkerDashboard aggregates the worker home screen.
func WorkerDashboard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var activeCount, completedCount int64
	config.DB.Model(&models.Project{}).
		Where("assigned_to_id = ? AND status = ?", user.ID, models.ProjectStatusActive).
		Count(&activeCount)
	config.DB.Model(&models.Project{}).
		Where("assigned_to_id = ? AND status = ?", user.ID, models.ProjectStatusCompleted).
		Count(&completedCount)

	var pendingMilestones int64
	config.DB.Model(&models.Milestone{}).
		Joins("JOIN projects ON projects.id = milestones.project_id").
		Where("projects.assigned_to_id = ? AND projects.status = ?", user.ID, models.ProjectStatusActive).
		Where("milestones.status IN ?", []string{models.MilestoneStatusNotStarted, models.MilestoneStatusInProgress}).
		Count(&pendingMilestones)

	var unreadNotifications int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unreadNotifications)

	var recentInvitations []models.Invite
	config.DB.Preload("Job").Preload("Employer").
		Where("worker_id = ? AND type = ? AND status = ?", user.ID, models.InviteTypeInvite, models.InviteStatusPending).
		Order("created_at DESC").Limit(5).
		Find(&recentInvitations)

	return c.JSON(fiber.Map{
		"active_projects":      activeCount,
		"completed_projects":   completedCount,
		"pending_milestones":   pendingMilestones,
		"unread_notifications": unreadNotifications,
		"recent_invitations":   recentInvitations,
		"available_balance":    workerBalance(config.DB, user.ID),
	})
}

// WorkerJobInvitations lists pending invitations addressed to the worker.
func WorkerJobInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Invite{}).
		Preload("Job").Preload("Employer").
		Where("worker_id = ? AND type = ?", user.ID, models.InviteTypeInvite)
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	} else {
		query = query.Where("status = ?", models.InviteStatusPending)
	}

	query.Count(&p.Total)

	var invites []models.Invite
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&invites).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invitations",
		})
	}

	return c.JSON(fiber.Map{"invitations": invites, "meta": p})
}

// WorkerActiveJobs lists projects the worker is currently assigned to.
func WorkerActiveJobs(c *fiber.Ctx) error {
	return workerProjectsByStatus(c, models.ProjectStatusActive)
}

// WorkerCompletedJobs lists projects the worker finished.
func WorkerCompletedJobs(c *fiber.Ctx) error {
	return workerProjectsByStatus(c, models.ProjectStatusCompleted)
}

func workerProjectsByStatus(c *fiber.Ctx, status string) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Project{}).
		Preload("CreatedBy").
		Where("assigned_to_id = ? AND status = ?", user.ID, status)

	query.Count(&p.Total)

	var projects []models.Project
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch projects",
		})
	}

	return c.JSON(fiber.Map{"projects": projects, "meta": p})
}

// WorkerPaymentsOverview reports derived earnings and the withdrawable
// balance.
func WorkerPaymentsOverview(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	totalEarnings := sumPayments(config.DB, "worker_id", user.ID, models.PaymentTypeEarning)
	withdrawn := sumPayments(config.DB, "worker_id", user.ID, models.PaymentTypeWithdrawal)

	var pendingWithdrawals float64
	config.DB.Model(&models.Payment{}).
		Where("worker_id = ? AND type = ? AND status = ?", user.ID,
			models.PaymentTypeWithdrawal, models.PaymentStatusPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&pendingWithdrawals)

	return c.JSON(fiber.Map{
		"total_earnings":      totalEarnings,
		"withdrawn":           withdrawn,
		"pending_withdrawals": pendingWithdrawals,
		"available_balance":   workerBalance(config.DB, user.ID),
	})
}

// WorkerPaymentsHistory lists the worker's earnings and withdrawals.
func WorkerPaymentsHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Payment{}).
		Preload("Employer").Preload("Project").
		Where("worker_id = ?", user.ID)
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

// RequestWithdrawal creates a pending withdrawal. The balance check and the
// insert share a transaction so concurrent requests cannot overdraw.
func RequestWithdrawal(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsWorker() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Worker account required",
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

	var withdrawal models.Payment
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if workerBalance(tx, user.ID) < input.Amount {
			return errInsufficientBalance
		}
		withdrawal = models.Payment{
			WorkerID: utils.Pointer(user.ID),
			Amount:   input.Amount,
			Currency: "NGN",
			Type:     models.PaymentTypeWithdrawal,
			Status:   models.PaymentStatusPending,
			Note:     input.Note,
		}
		return tx.Create(&withdrawal).Error
	})
	if err == errInsufficientBalance {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Amount exceeds available balance",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to request withdrawal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment":           withdrawal,
		"available_balance": workerBalance(config.DB, user.ID),
	})
}
