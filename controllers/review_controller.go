package controller

import (
	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

type CreateReviewRequest struct {
	ProjectID       uint   `json:"project_id" validate:"required"`
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	PublicFeedback  string `json:"public_feedback"`
	PrivateFeedback string `json:"private_feedback"`
}

// CreateReview records a rating between the two participants of a completed
// project. The reviewee is always the other participant.
func CreateReview(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateReviewRequest
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

	var project models.Project
	if err := config.DB.First(&project, req.ProjectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !project.IsParticipant(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a participant of this project",
		})
	}
	if project.Status != models.ProjectStatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Reviews are only allowed on completed projects",
		})
	}

	revieweeID := project.OtherParticipant(user.ID)
	if revieweeID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project has no counterpart to review",
		})
	}

	var existing models.Review
	err := config.DB.Where(
		"project_id = ? AND reviewer_id = ? AND reviewee_id = ?",
		project.ID, user.ID, revieweeID,
	).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have already reviewed this project",
		})
	}

	review := models.Review{
		ProjectID:       project.ID,
		ReviewerID:      user.ID,
		RevieweeID:      revieweeID,
		Rating:          req.Rating,
		PublicFeedback:  req.PublicFeedback,
		PrivateFeedback: req.PrivateFeedback,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create review",
		})
	}

	// Keep the denormalized rating on worker profiles current
	var reviewee models.User
	if err := config.DB.First(&reviewee, revieweeID).Error; err == nil && reviewee.IsWorker() {
		var avg float64
		config.DB.Model(&models.Review{}).
			Where("reviewee_id = ?", revieweeID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&avg)
		reviewee.SkilledWorker.Rating = avg
		config.DB.Save(&reviewee)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}

// ListReviewsForUser is the public review feed for a worker or employer.
func ListReviewsForUser(c *fiber.Ctx) error {
	userID := utils.ParseUint(c.Params("id"))
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Review{}).
		Preload("Reviewer").Preload("Project").
		Where("reviewee_id = ?", userID)

	query.Count(&p.Total)

	var reviews []models.Review
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&reviews).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reviews",
		})
	}

	var stats struct {
		Average float64
		Count   int64
	}
	config.DB.Model(&models.Review{}).
		Where("reviewee_id = ?", userID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Scan(&stats)

	return c.JSON(fiber.Map{
		"reviews":        reviews,
		"average_rating": stats.Average,
		"review_count":   stats.Count,
		"meta":           p,
	})
}

// MyReviewHistory lists reviews the caller wrote.
func MyReviewHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Review{}).
		Preload("Reviewee").Preload("Project").
		Where("reviewer_id = ?", user.ID)

	query.Count(&p.Total)

	var reviews []models.Review
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&reviews).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reviews",
		})
	}

	return c.JSON(fiber.Map{"reviews": reviews, "meta": p})
}
