package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 20)

	query := config.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if isRead := c.Query("is_read"); isRead != "" {
		query = query.Where("is_read = ?", isRead == "true")
	}

	query.Count(&p.Total)

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").
		Offset(p.Offset()).Limit(p.Limit).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch notifications",
		})
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
		"meta":          p,
	})
}

type CreateNotificationRequest struct {
	UserID  uint                   `json:"user_id" validate:"required"`
	Title   string                 `json:"title"`
	Message string                 `json:"message" validate:"required"`
	Type    string                 `json:"type"`
	Link    string                 `json:"link"`
	Meta    map[string]interface{} `json:"meta"`
	Email   bool                   `json:"email"`
}

// CreateNotification lets an admin push a notification to any user.
func CreateNotification(c *fiber.Ctx) error {
	var req CreateNotificationRequest
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

	notification, err := utils.Notify(config.DB, utils.NotifyArgs{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Link:    req.Link,
		Meta:    req.Meta,
		Email:   req.Email,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"notification": notification})
}

// MarkNotificationRead marks one owned notification as read. Repeat calls
// succeed without touching readAt again.
func MarkNotificationRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var notification models.Notification
	if err := config.DB.Where("user_id = ?", user.ID).
		First(&notification, utils.ParseUint(c.Params("id"))).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	if !notification.IsRead {
		notification.IsRead = true
		notification.ReadAt = utils.Pointer(time.Now())
		if err := config.DB.Save(&notification).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update notification",
			})
		}
	}

	return c.JSON(fiber.Map{"notification": notification})
}

// MarkAllNotificationsRead marks every unread notification of the caller.
func MarkAllNotificationsRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update notifications",
		})
	}

	return c.JSON(fiber.Map{"updated": result.RowsAffected})
}
