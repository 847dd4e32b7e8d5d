package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// AdminLogin authenticates an admin and sets the auth_token cookie used by
// the admin console.
func AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}
	if user.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin privileges required",
		})
	}

	token, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "auth_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "Lax",
		Expires:  time.Now().Add(config.AppConfig.JWTExpiry),
	})

	return c.JSON(AuthResponse{User: &user, Token: token})
}

// AdminListUsers lists accounts with accountType/active filters.
func AdminListUsers(c *fiber.Ctx) error {
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.User{})
	if accountType := c.Query("account_type"); accountType != "" {
		query = query.Where("account_type = ?", accountType)
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	query.Count(&p.Total)

	var users []models.User
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{"data": users, "meta": p})
}

// AdminGetUser returns one account.
func AdminGetUser(c *fiber.Ctx) error {
	var user models.User
	if err := config.DB.First(&user, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	return c.JSON(fiber.Map{"data": user})
}

// AdminListJobs lists postings with title/active filters.
func AdminListJobs(c *fiber.Ctx) error {
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Job{}).Preload("Employer")
	if title := c.Query("title"); title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	query.Count(&p.Total)

	var jobs []models.Job
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&jobs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch jobs",
		})
	}

	return c.JSON(fiber.Map{"data": jobs, "meta": p})
}

// AdminGetJob returns one posting.
func AdminGetJob(c *fiber.Ctx) error {
	var job models.Job
	if err := config.DB.Preload("Employer").
		First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	return c.JSON(fiber.Map{"data": job})
}

// AdminListPayments lists ledger rows with type/status filters.
func AdminListPayments(c *fiber.Ctx) error {
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Payment{}).
		Preload("Worker").Preload("Employer").Preload("Project")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
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

	return c.JSON(fiber.Map{"data": payments, "meta": p})
}

// AdminGetPayment returns one ledger row.
func AdminGetPayment(c *fiber.Ctx) error {
	var payment models.Payment
	if err := config.DB.Preload("Worker").Preload("Employer").Preload("Project").
		First(&payment, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Payment not found",
		})
	}
	return c.JSON(fiber.Map{"data": payment})
}
