package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

type CreateJobRequest struct {
	Title          string             `json:"title" validate:"required,max=200"`
	Description    string             `json:"description" validate:"required"`
	BudgetRange    models.BudgetRange `json:"budget_range"`
	Timeline       string             `json:"timeline"`
	RequiredSkills []string           `json:"required_skills"`
}

// CreateJob posts a new job for the authenticated employer.
func CreateJob(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only employers can post jobs",
		})
	}

	var req CreateJobRequest
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
	if req.BudgetRange.Min < 0 || req.BudgetRange.Max < req.BudgetRange.Min {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid budget range",
		})
	}

	job := models.Job{
		EmployerID:     user.ID,
		Title:          req.Title,
		Description:    req.Description,
		BudgetRange:    req.BudgetRange,
		Timeline:       req.Timeline,
		RequiredSkills: req.RequiredSkills,
		IsActive:       true,
	}
	if err := config.DB.Create(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create job",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job": job})
}

// ListMyJobs returns the employer's own postings, newest first.
func ListMyJobs(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Job{}).Where("employer_id = ?", user.ID)
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

	return c.JSON(fiber.Map{"jobs": jobs, "meta": p})
}

// GetJob returns one job with its employer preloaded.
func GetJob(c *fiber.Ctx) error {
	var job models.Job
	if err := config.DB.Preload("Employer").First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	return c.JSON(fiber.Map{"job": job})
}

// UpdateJob patches an owned job. Only whitelisted fields are touched.
func UpdateJob(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var job models.Job
	if err := config.DB.First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if job.EmployerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this job",
		})
	}

	var input struct {
		Title          *string             `json:"title"`
		Description    *string             `json:"description"`
		BudgetRange    *models.BudgetRange `json:"budget_range"`
		Timeline       *string             `json:"timeline"`
		RequiredSkills []string            `json:"required_skills"`
		IsActive       *bool               `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Title != nil {
		job.Title = *input.Title
	}
	if input.Description != nil {
		job.Description = *input.Description
	}
	if input.BudgetRange != nil {
		if input.BudgetRange.Min < 0 || input.BudgetRange.Max < input.BudgetRange.Min {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid budget range",
			})
		}
		job.BudgetRange = *input.BudgetRange
	}
	if input.Timeline != nil {
		job.Timeline = *input.Timeline
	}
	if input.RequiredSkills != nil {
		job.RequiredSkills = input.RequiredSkills
	}
	if input.IsActive != nil {
		job.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update job",
		})
	}

	return c.JSON(fiber.Map{"job": job})
}

// DeleteJob removes an owned job.
func DeleteJob(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var job models.Job
	if err := config.DB.First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if job.EmployerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this job",
		})
	}

	if err := config.DB.Delete(&job).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete job",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ApplyToJob records a worker's application against an active job. A worker
// gets one open application per job.
func ApplyToJob(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsWorker() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only skilled workers can apply to jobs",
		})
	}

	var job models.Job
	if err := config.DB.First(&job, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if !job.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Job is no longer accepting applications",
		})
	}

	var existing models.Invite
	err := config.DB.Where(
		"job_id = ? AND worker_id = ? AND type = ? AND status IN (?, ?)",
		job.ID, user.ID, models.InviteTypeApplication,
		models.InviteStatusApplied, models.InviteStatusApproved,
	).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "You have already applied to this job",
		})
	}

	var input struct {
		Message string `json:"message"`
	}
	// Body is optional for applications
	_ = c.BodyParser(&input)

	application := models.Invite{
		EmployerID: job.EmployerID,
		WorkerID:   user.ID,
		JobID:      job.ID,
		Message:    input.Message,
		Type:       models.InviteTypeApplication,
		Status:     models.InviteStatusApplied,
	}
	if err := config.DB.Create(&application).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit application",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  job.EmployerID,
		Title:   "New application",
		Message: fmt.Sprintf("%s applied to your job %q", user.Name, job.Title),
		Type:    models.NotificationTypeApplication,
		Link:    fmt.Sprintf("/app/jobs/%d/applications", job.ID),
		Meta:    map[string]interface{}{"job_id": job.ID, "invite_id": application.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_application", err, map[string]interface{}{"job_id": job.ID})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invite": application})
}

// ApproveApplication lets the job owner approve an accepted invite or an
// applied application. Approving an application does not close the job, so
// an employer can hire several applicants from one posting.
func ApproveApplication(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invite models.Invite
	if err := config.DB.Preload("Job").Preload("Worker").
		First(&invite, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Application not found",
		})
	}
	if invite.EmployerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this job",
		})
	}

	if err := invite.Transition(models.InviteStatusApproved); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := config.DB.Save(&invite).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to approve application",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  invite.WorkerID,
		Title:   "Application approved",
		Message: fmt.Sprintf("Your application for %q was approved", invite.Job.Title),
		Type:    models.NotificationTypeApplication,
		Link:    fmt.Sprintf("/app/jobs/%d", invite.JobID),
		Meta:    map[string]interface{}{"job_id": invite.JobID, "invite_id": invite.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_approval", err, map[string]interface{}{"invite_id": invite.ID})
	}

	return c.JSON(fiber.Map{"application": invite})
}
