package utils

import (
	"fmt"

	"gorm.io/gorm"

	"skilllink/models"
)

// NotifyArgs describes one notification to create.
type NotifyArgs struct {
	UserID  uint
	Title   string
	Message string
	Type    string
	Link    string
	Meta    map[string]interface{}
	Email   bool
}

// Notify creates an in-app notification and, when asked, best-effort emails
// it. The user's account type is snapshotted onto the record so audience
// filtering never needs a join. Email failure is logged and swallowed; the
// notification row is never rolled back.
func Notify(db *gorm.DB, args NotifyArgs) (*models.Notification, error) {
	if args.UserID == 0 || args.Message == "" {
		return nil, fmt.Errorf("userID and message are required")
	}

	var user models.User
	if err := db.First(&user, args.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found for notification: %w", err)
	}

	notificationType := args.Type
	if notificationType == "" {
		notificationType = models.NotificationTypeSystem
	}

	doc := models.Notification{
		UserID:      user.ID,
		AccountType: user.AccountType,
		Title:       args.Title,
		Message:     args.Message,
		Type:        notificationType,
		Link:        args.Link,
		Meta:        args.Meta,
	}
	if err := db.Create(&doc).Error; err != nil {
		return nil, err
	}

	if args.Email && user.Email != "" {
		subject := args.Title
		if subject == "" {
			subject = "New notification"
		}
		text := args.Message
		if args.Link != "" {
			text += "\nOpen: " + args.Link
		}
		html := "<p>" + args.Message + "</p>"
		if args.Link != "" {
			html += fmt.Sprintf(`<p><a href="%s">Open</a></p>`, args.Link)
		}
		if err := SendEmail(user.Email, subject, text, html); err != nil {
			LogError("notification_email", err, map[string]interface{}{
				"user_id": user.ID,
				"type":    notificationType,
			})
		} else {
			doc.EmailSent = true
			db.Save(&doc)
		}
	}

	return &doc, nil
}
