package controller

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// RequestPayment appends a payment_request event. Assignee only; the money
// itself moves when the employer releases it.
func RequestPayment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}
	if project.AssignedToID == nil || *project.AssignedToID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the assigned worker can request payment",
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

	event := models.ProjectEvent{
		ProjectID:   project.ID,
		CreatedByID: user.ID,
		Type:        models.EventPaymentRequest,
		Text:        input.Note,
		Amount:      input.Amount,
	}
	if err := config.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record payment request",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  project.CreatedByID,
		Title:   "Payment requested",
		Message: fmt.Sprintf("%s requested a payment of %.2f on %q", user.Name, input.Amount, project.Title),
		Type:    models.NotificationTypeProject,
		Link:    fmt.Sprintf("/app/projects/%d", project.ID),
		Meta:    map[string]interface{}{"project_id": project.ID, "event_id": event.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_payment_request", err, map[string]interface{}{"event_id": event.ID})
	}

	broadcastProjectUpdate(project.ID, "event", event)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}

// ExtendDeadline moves the project deadline directly. Creator only.
func ExtendDeadline(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}
	if project.CreatedByID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project owner can extend the deadline",
		})
	}

	var input struct {
		Deadline time.Time `json:"deadline" validate:"required"`
		Note     string    `json:"note"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.Deadline.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "deadline is required",
		})
	}

	project.Deadline = &input.Deadline
	if err := config.DB.Save(project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update deadline",
		})
	}

	event := models.ProjectEvent{
		ProjectID:        project.ID,
		CreatedByID:      user.ID,
		Type:             models.EventDeadlineExtension,
		Text:             input.Note,
		ProposedDeadline: &input.Deadline,
	}
	if err := config.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record deadline change",
		})
	}

	if project.AssignedToID != nil {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  *project.AssignedToID,
			Title:   "Deadline extended",
			Message: fmt.Sprintf("The deadline on %q moved to %s", project.Title, input.Deadline.Format("2006-01-02")),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID, "event_id": event.ID},
		}); err != nil {
			utils.LogError("notify_deadline_extended", err, map[string]interface{}{"event_id": event.ID})
		}
	}

	broadcastProjectUpdate(project.ID, "event", event)

	return c.JSON(fiber.Map{"project": project, "event": event})
}

// RequestDeadlineExtension records the worker's proposal without touching the
// deadline.
func RequestDeadlineExtension(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}
	if project.AssignedToID == nil || *project.AssignedToID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the assigned worker can request an extension",
		})
	}

	var input struct {
		ProposedDeadline time.Time `json:"proposed_deadline"`
		Reason           string    `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if input.ProposedDeadline.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "proposed_deadline is required",
		})
	}

	event := models.ProjectEvent{
		ProjectID:        project.ID,
		CreatedByID:      user.ID,
		Type:             models.EventDeadlineRequested,
		Text:             input.Reason,
		ProposedDeadline: &input.ProposedDeadline,
	}
	if err := config.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record extension request",
		})
	}

	if _, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  project.CreatedByID,
		Title:   "Deadline extension requested",
		Message: fmt.Sprintf("%s asked to move the deadline on %q to %s", user.Name, project.Title, input.ProposedDeadline.Format("2006-01-02")),
		Type:    models.NotificationTypeProject,
		Link:    fmt.Sprintf("/app/projects/%d", project.ID),
		Meta:    map[string]interface{}{"project_id": project.ID, "event_id": event.ID},
		Email:   true,
	}); err != nil {
		utils.LogError("notify_deadline_requested", err, map[string]interface{}{"event_id": event.ID})
	}

	broadcastProjectUpdate(project.ID, "event", event)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}

// ApproveDeadlineExtension applies a requested extension. The proposal event
// is never mutated; the approval is a new event pointing back at it.
func ApproveDeadlineExtension(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}
	if project.CreatedByID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the project owner can approve extensions",
		})
	}

	var request models.ProjectEvent
	if err := config.DB.Where("project_id = ? AND type = ?", project.ID, models.EventDeadlineRequested).
		First(&request, utils.ParseUint(c.Params("eventId"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Extension request not found",
		})
	}

	var resolved models.ProjectEvent
	if err := config.DB.Where("ref_event_id = ? AND type = ?", request.ID, models.EventDeadlineApproved).
		First(&resolved).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Extension request already approved",
		})
	}

	var input struct {
		Deadline *time.Time `json:"deadline"`
	}
	// Body is optional; an override deadline may replace the proposed one
	_ = c.BodyParser(&input)

	newDeadline := request.ProposedDeadline
	if input.Deadline != nil && !input.Deadline.IsZero() {
		newDeadline = input.Deadline
	}
	if newDeadline == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No deadline to apply",
		})
	}

	project.Deadline = newDeadline
	if err := config.DB.Save(project).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update deadline",
		})
	}

	approval := models.ProjectEvent{
		ProjectID:        project.ID,
		CreatedByID:      user.ID,
		Type:             models.EventDeadlineApproved,
		ProposedDeadline: newDeadline,
		RefEventID:       utils.Pointer(request.ID),
	}
	if err := config.DB.Create(&approval).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record approval",
		})
	}

	if project.AssignedToID != nil {
		if _, err := utils.Notify(config.DB, utils.NotifyArgs{
			UserID:  *project.AssignedToID,
			Title:   "Deadline extension approved",
			Message: fmt.Sprintf("Your extension request on %q was approved; new deadline %s", project.Title, newDeadline.Format("2006-01-02")),
			Type:    models.NotificationTypeProject,
			Link:    fmt.Sprintf("/app/projects/%d", project.ID),
			Meta:    map[string]interface{}{"project_id": project.ID, "event_id": approval.ID},
		}); err != nil {
			utils.LogError("notify_deadline_approved", err, map[string]interface{}{"event_id": approval.ID})
		}
	}

	broadcastProjectUpdate(project.ID, "event", approval)

	return c.JSON(fiber.Map{"project": project, "event": approval})
}

// ContactSupport records a support request against the project. Either
// participant may raise one.
func ContactSupport(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	project, errResp := loadProject(c, user)
	if project == nil {
		return errResp
	}

	var input struct {
		Message string `json:"message" validate:"required"`
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

	event := models.ProjectEvent{
		ProjectID:   project.ID,
		CreatedByID: user.ID,
		Type:        models.EventSupport,
		Text:        input.Message,
	}
	if err := config.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record support request",
		})
	}

	utils.LogEvent("support_request", map[string]interface{}{
		"project_id": project.ID,
		"user_id":    user.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}
