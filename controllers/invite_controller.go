package controller

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

type CreateInviteRequest struct {
	WorkerID uint   `json:"worker_id" validate:"required"`
	JobID    uint   `json:"job_id" validate:"required"`
	Message  string `json:"message"`
}

// CreateInvite lets a job owner invite a worker to their posting.
func CreateInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateInviteRequest
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

	var job models.Job
	if err := config.DB.First(&job, req.JobID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
		})
	}
	if job.EmployerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not own this job",
		})
	}
	if !job.IsActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Job is not active",
		})
	}

	var worker models.User
	if err := config.DB.First(&worker, req.WorkerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Worker not found",
		})
	}
	if !worker.IsActive || !worker.IsWorker() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User is not an active skilled worker",
		})
	}

	var existing models.Invite
	err := config.DB.Where(
		"job_id = ? AND worker_id = ? AND type = ? AND status = ?",
		job.ID, worker.ID, models.InviteTypeInvite, models.InviteStatusPending,
	).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An invite for this worker is already pending",
		})
	}

	invite := models.Invite{
		EmployerID: user.ID,
		WorkerID:   worker.ID,
		JobID:      job.ID,
		Message:    req.Message,
		Type:       models.InviteTypeInvite,
		Status:     models.InviteStatusPending,
	}
	if err := config.DB.Create(&invite).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invite",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  worker.ID,
		Title:   "New job invitation",
		Message: fmt.Sprintf("%s invited you to %q", user.Name, job.Title),
		Type:    models.NotificationTypeInvite,
		Link:    fmt.Sprintf("/app/invites/%d", invite.ID),
		Meta:    map[string]interface{}{"job_id": job.ID, "invite_id": invite.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_invite", err, map[string]interface{}{"invite_id": invite.ID})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invite": invite})
}

// AcceptInvite is the worker accepting a pending invite. The invite is walked
// all the way to approved, an active project is created off the job, and the
// job stops accepting further interest.
func AcceptInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invite models.Invite
	if err := config.DB.Preload("Job").Preload("Employer").
		First(&invite, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invite not found",
		})
	}
	if invite.WorkerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invite is not addressed to you",
		})
	}
	if invite.Type != models.InviteTypeInvite || invite.Status != models.InviteStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invite is not pending",
		})
	}

	var project models.Project
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := invite.Transition(models.InviteStatusAccepted); err != nil {
			return err
		}
		if err := invite.Transition(models.InviteStatusApproved); err != nil {
			return err
		}
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}

		category := invite.Job.Timeline
		if category == "" {
			category = "General"
		}
		project = models.Project{
			Title:        invite.Job.Title,
			Category:     category,
			Budget:       invite.Job.BudgetRange.Max,
			Currency:     "NGN",
			Deadline:     parseTimeline(invite.Job.Timeline),
			CreatedByID:  invite.EmployerID,
			AssignedToID: utils.Pointer(invite.WorkerID),
			JobID:        utils.Pointer(invite.JobID),
			Status:       models.ProjectStatusActive,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		return tx.Model(&models.Job{}).
			Where("id = ?", invite.JobID).
			Update("is_active", false).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invite",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  invite.EmployerID,
		Title:   "Invite accepted",
		Message: fmt.Sprintf("%s accepted your invitation for %q", user.Name, invite.Job.Title),
		Type:    models.NotificationTypeInvite,
		Link:    fmt.Sprintf("/app/projects/%d", project.ID),
		Meta:    map[string]interface{}{"invite_id": invite.ID, "project_id": project.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_invite_accepted", err, map[string]interface{}{"invite_id": invite.ID})
	}

	return c.JSON(fiber.Map{"invite": invite, "project": project})
}

// DeclineInvite is the worker declining a pending invite.
func DeclineInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invite models.Invite
	if err := config.DB.Preload("Job").
		First(&invite, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invite not found",
		})
	}
	if invite.WorkerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invite is not addressed to you",
		})
	}
	if invite.Type != models.InviteTypeInvite || invite.Status != models.InviteStatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only pending employer invites can be declined",
		})
	}

	if err := invite.Transition(models.InviteStatusDeclined); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := config.DB.Save(&invite).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to decline invite",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  invite.EmployerID,
		Title:   "Invite declined",
		Message: fmt.Sprintf("%s declined your invitation for %q", user.Name, invite.Job.Title),
		Type:    models.NotificationTypeInvite,
		Meta:    map[string]interface{}{"invite_id": invite.ID},
	}); err != nil {
		utils.LogError("notify_invite_declined", err, map[string]interface{}{"invite_id": invite.ID})
	}

	return c.JSON(fiber.Map{"invite": invite})
}

// ListInvites returns invites visible to the caller: workers see invites
// addressed to them, employers see invites they sent.
func ListInvites(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Invite{}).
		Preload("Job").Preload("Worker").Preload("Employer")
	if user.IsEmployer() {
		query = query.Where("employer_id = ?", user.ID)
	} else {
		query = query.Where("worker_id = ?", user.ID)
	}

	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	}
	if jobID := c.Query("job_id"); jobID != "" {
		query = query.Where("job_id = ?", utils.ParseUint(jobID))
	}

	query.Count(&p.Total)

	var invites []models.Invite
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&invites).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch invites",
		})
	}

	return c.JSON(fiber.Map{"invites": invites, "meta": p})
}

// GetInvite returns one invite to either of its two parties.
func GetInvite(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var invite models.Invite
	if err := config.DB.Preload("Job").Preload("Worker").Preload("Employer").
		First(&invite, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invite not found",
		})
	}
	if invite.WorkerID != user.ID && invite.EmployerID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a party to this invite",
		})
	}

	return c.JSON(fiber.Map{"invite": invite})
}

// parseTimeline interprets a job's free-text timeline as a date when it uses
// a recognized format. Anything else leaves the project deadline unset.
func parseTimeline(timeline string) *time.Time {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, timeline); err == nil {
			return &t
		}
	}
	return nil
}
