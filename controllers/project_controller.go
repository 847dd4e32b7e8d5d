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

// loadProject fetches the project from the :id param and checks the caller is
// a participant. On failure the response has already been written and the
// returned project is nil.
func loadProject(c *fiber.Ctx, user *models.User) (*models.Project, error) {
	var project models.Project
	if err := config.DB.First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !project.IsParticipant(user.ID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a participant of this project",
		})
	}
	return &project, nil
}

// ListProjects returns projects where the caller is creator or assignee.
func ListProjects(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Project{}).
		Preload("CreatedBy").Preload("AssignedTo").
		Where("created_by_id = ? OR assigned_to_id = ?", user.ID, user.ID)
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	}

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

type CreateProjectRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Category     string     `json:"category"`
	Budget       float64    `json:"budget" validate:"gte=0"`
	Currency     string     `json:"currency"`
	Deadline     *time.Time `json:"deadline"`
	AssignedToID *uint      `json:"assigned_to_id"`
	JobID        *uint      `json:"job_id"`
}

// CreateProject starts a project directly, outside the invite flow.
func CreateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only employers can create projects",
		})
	}

	var req CreateProjectRequest
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

	currency := req.Currency
	if currency == "" {
		currency = "NGN"
	}

	project := models.Project{
		Title:        req.Title,
		Category:     req.Category,
		Budget:       req.Budget,
		Currency:     currency,
		Deadline:     req.Deadline,
		CreatedByID:  user.ID,
		AssignedToID: req.AssignedToID,
		JobID:        req.JobID,
		Status:       models.ProjectStatusActive,
	}
	if err := config.DB.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	if project.AssignedToID != nil {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  *project.AssignedToID,
			Title:   "Assigned to a project",
			Message: fmt.Sprintf("You were assigned to project %q", project.Title),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID},
			Email:   true,
		}); err != nil {
			utils.LogError("notify_project_assigned", err, map[string]interface{}{"project_id": project.ID})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"project": project})
}

// GetProject returns one project with its sub-entities in stable order.
func GetProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	err := config.DB.
		Preload("CreatedBy").Preload("AssignedTo").
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC").Preload("Sender")
		}).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&project, utils.ParseUint(c.Params("id"))).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if !project.IsParticipant(user.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not a participant of this project",
		})
	}

	return c.JSON(fiber.Map{"project": project})
}

// UpdateProject patches a project. Creator only. Moving the status to
// completed cascades: open invites against the linked job and worker are
// forced to their terminal approved state, the job is deactivated, and both
// parties are notified.
func UpdateProject(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var project models.Project
	if err := config.DB.First(&project, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project not found",
		})
	}
	if project.CreatedByID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project owner can update it",
		})
	}

	var input struct {
		Title        *string    `json:"title"`
		Category     *string    `json:"category"`
		Budget       *float64   `json:"budget"`
		Currency     *string    `json:"currency"`
		Deadline     *time.Time `json:"deadline"`
		Progress     *int       `json:"progress"`
		Status       *string    `json:"status"`
		AssignedToID *uint      `json:"assigned_to_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Title != nil {
		project.Title = *input.Title
	}
	if input.Category != nil {
		project.Category = *input.Category
	}
	if input.Budget != nil {
		if *input.Budget < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Budget cannot be negative",
			})
		}
		project.Budget = *input.Budget
	}
	if input.Currency != nil {
		project.Currency = *input.Currency
	}
	if input.Deadline != nil {
		project.Deadline = input.Deadline
	}
	if input.Progress != nil {
		if *input.Progress < 0 || *input.Progress > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Progress must be between 0 and 100",
			})
		}
		project.Progress = *input.Progress
	}

	assigneeChanged := false
	if input.AssignedToID != nil && (project.AssignedToID == nil || *project.AssignedToID != *input.AssignedToID) {
		var assignee models.User
		if err := config.DB.First(&assignee, *input.AssignedToID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Assignee not found",
			})
		}
		project.AssignedToID = input.AssignedToID
		assigneeChanged = true
	}

	completing := false
	if input.Status != nil {
		switch *input.Status {
		case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusArchived:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid status",
			})
		}
		completing = *input.Status == models.ProjectStatusCompleted &&
			project.Status != models.ProjectStatusCompleted
		project.Status = *input.Status
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&project).Error; err != nil {
			return err
		}
		if completing {
			return completeProjectCascade(tx, &project)
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update project",
		})
	}

	if assigneeChanged {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  *project.AssignedToID,
			Title:   "Assigned to a project",
			Message: fmt.Sprintf("You were assigned to project %q", project.Title),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID},
			Email:   true,
		}); err != nil {
			utils.LogError("notify_project_assigned", err, map[string]interface{}{"project_id": project.ID})
		}
	}

	if completing {
		for _, uid := range []uint{project.CreatedByID, project.OtherParticipant(project.CreatedByID)} {
			if uid == 0 {
				continue
			}
			if _, err := utils.Notify(config.DB, utils.NotifyArgs{
				UserID:  uid,
				Title:   "Project completed",
				Message: fmt.Sprintf("Project %q has been marked completed", project.Title),
				Type:    models.NotificationTypeProject,
				Link:    fmt.Sprintf("/app/projects/%d", project.ID),
				Meta:    map[string]interface{}{"project_id": project.ID},
				Email:   true,
			}); err != nil {
				utils.LogError("notify_project_completed", err, map[string]interface{}{"project_id": project.ID})
			}
		}
	}

	return c.JSON(fiber.Map{"project": project})
}

// completeProjectCascade closes out the hiring records behind a finished
// project: non-terminal invites between the job and the assigned worker are
// walked to approved, and the job stops accepting interest.
func completeProjectCascade(tx *gorm.DB, project *models.Project) error {
	if project.JobID == nil {
		return nil
	}

	if project.AssignedToID != nil {
		var invites []models.Invite
		if err := tx.Where("job_id = ? AND worker_id = ?", *project.JobID, *project.AssignedToID).
			Find(&invites).Error; err != nil {
			return err
		}
		for i := range invites {
			invite := &invites[i]
			for !invite.Terminal() {
				next := models.InviteStatusApproved
				if !models.CanTransition(invite.Type, invite.Status, next) {
					next = models.InviteStatusAccepted
				}
				if err := invite.Transition(next); err != nil {
					return err
				}
			}
			if err := tx.Save(invite).Error; err != nil {
				return err
			}
		}
	}

	return tx.Model(&models.Job{}).
		Where("id = ?", *project.JobID).
		Update("is_active", false).Error
}

// ListProjectMessages returns the conversation in chronological order.
func ListProjectMessages(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var messages []models.ProjectMessage
	if err := config.DB.Preload("Sender").
		Where("project_id = ?", project.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch messages",
		})
	}

	return c.JSON(fiber.Map{"messages": messages})
}

// PostProjectMessage appends to the conversation and notifies the other
// participant.
func PostProjectMessage(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var input struct {
		Text string `json:"text" validate:"required"`
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

	message := models.ProjectMessage{
		ProjectID: project.ID,
		SenderID:  user.ID,
		Text:      input.Text,
	}
	if err := config.DB.Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send message",
		})
	}

	if other := project.OtherParticipant(user.ID); other != 0 {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  other,
			Title:   "New project message",
			Message: fmt.Sprintf("%s sent a message on %q", user.Name, project.Title),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID},
		}); err != nil {
			utils.LogError("notify_project_message", err, map[string]interface{}{"project_id": project.ID})
		}
	}

	broadcastProjectUpdate(project.ID, "message", message)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

// ListProjectSubmissions returns uploaded deliverables in chronological order.
func ListProjectSubmissions(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var submissions []models.Submission
	if err := config.DB.Where("project_id = ?", project.ID).
		Order("created_at ASC, id ASC").
		Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch submissions",
		})
	}

	return c.JSON(fiber.Map{"submissions": submissions})
}

// PostProjectSubmission records an uploaded deliverable reference.
func PostProjectSubmission(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var input struct {
		Filename string `json:"filename"`
		URL      string `json:"url" validate:"required"`
		Note     string `json:"note"`
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

	submission := models.Submission{
		ProjectID:    project.ID,
		UploadedByID: user.ID,
		Filename:     input.Filename,
		URL:          input.URL,
		Note:         input.Note,
	}
	if err := config.DB.Create(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record submission",
		})
	}

	if other := project.OtherParticipant(user.ID); other != 0 {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  other,
			Title:   "New file submission",
			Message: fmt.Sprintf("%s shared a file on %q", user.Name, project.Title),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID, "submission_id": submission.ID},
		}); err != nil {
			utils.LogError("notify_submission", err, map[string]interface{}{"project_id": project.ID})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"submission": submission})
}

// DeleteProjectSubmission removes a shared file reference. Either participant
// may delete.
func DeleteProjectSubmission(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var submission models.Submission
	if err := config.DB.Where("project_id = ?", project.ID).
		First(&submission, utils.ParseUint(c.Params("submissionId"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Submission not found",
		})
	}

	if err := config.DB.Delete(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete submission",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateMilestone adds a milestone. Creator only.
func CreateMilestone(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}
	if project.CreatedByID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project owner can add milestones",
		})
	}

	var input struct {
		Title       string     `json:"title" validate:"required,max=200"`
		Description string     `json:"description"`
		Deadline    *time.Time `json:"deadline"`
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

	milestone := models.Milestone{
		ProjectID:   project.ID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		Status:      models.MilestoneStatusNotStarted,
	}
	if err := config.DB.Create(&milestone).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create milestone",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"milestone": milestone})
}

// UpdateMilestone patches a milestone. The assignee may only move the status
// to in_progress or submitted; any other change from the assignee is
// rejected. The creator may change any field, and approving notifies the
// worker while a submission notifies the employer.
func UpdateMilestone(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var milestone models.Milestone
	if err := config.DB.Where("project_id = ?", project.ID).
		First(&milestone, utils.ParseUint(c.Params("milestoneId"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Milestone not found",
		})
	}

	var input struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Deadline    *time.Time `json:"deadline"`
		Status      *string    `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	isCreator := project.CreatedByID == user.ID
	if !isCreator {
		if input.Title != nil || input.Description != nil || input.Deadline != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Only the project owner can edit milestone details",
			})
		}
		if input.Status == nil ||
			(*input.Status != models.MilestoneStatusInProgress && *input.Status != models.MilestoneStatusSubmitted) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Workers can only move milestones to in_progress or submitted",
			})
		}
	}

	if input.Title != nil {
		milestone.Title = *input.Title
	}
	if input.Description != nil {
		milestone.Description = *input.Description
	}
	if input.Deadline != nil {
		milestone.Deadline = input.Deadline
	}
	if input.Status != nil {
		switch *input.Status {
		case models.MilestoneStatusNotStarted, models.MilestoneStatusInProgress,
			models.MilestoneStatusSubmitted, models.MilestoneStatusApproved:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid milestone status",
			})
		}
		milestone.Status = *input.Status
	}

	if err := config.DB.Save(&milestone).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update milestone",
		})
	}

	if input.Status != nil {
		switch *input.Status {
		case models.MilestoneStatusSubmitted:
			if _, err := utils.Notify(config.DB, utils.NotifyArgs{
				UserID:  project.CreatedByID,
				Title:   "Milestone submitted",
				Message: fmt.Sprintf("Milestone %q on %q was submitted for review", milestone.Title, project.Title),
				Type:    models.NotificationTypeProject,
				Link:    fmt.Sprintf("/app/projects/%d", project.ID),
				Meta:    map[string]interface{}{"project_id": project.ID, "milestone_id": milestone.ID},
			}); err != nil {
				utils.LogError("notify_milestone_submitted", err, map[string]interface{}{"milestone_id": milestone.ID})
			}
		case models.MilestoneStatusApproved:
			if project.AssignedToID != nil {
				if _, err := utils.Notify(config.DB, utils.NotifyArgs{
					UserID:  *project.AssignedToID,
					Title:   "Milestone approved",
					Message: fmt.Sprintf("Milestone %q on %q was approved", milestone.Title, project.Title),
					Type:    models.NotificationTypeProject,
					Link:    fmt.Sprintf("/app/projects/%d", project.ID),
					Meta:    map[string]interface{}{"project_id": project.ID, "milestone_id": milestone.ID},
				}); err != nil {
					utils.LogError("notify_milestone_approved", err, map[string]interface{}{"milestone_id": milestone.ID})
				}
			}
		}
	}

	return c.JSON(fiber.Map{"milestone": milestone})
}
