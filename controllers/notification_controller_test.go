package controller_test

import (
	"fmt"
	"net/http"
	"testing"

	"skilllink/models"
	"skilllink/utils"
)

func TestMarkNotificationReadIsIdempotent(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "notif@example.com")

	notification, err := utils.Notify(database, utils.NotifyArgs{
		UserID:  user.ID,
		Title:   "Welcome",
		Message: "Your account is ready",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	token := bearerToken(t, user)
	path := fmt.Sprintf("/api/notifications/%d/read", notification.ID)

	first := doJSON(t, app, http.MethodPost, path, token, nil)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first read failed with status %d", first.StatusCode)
	}

	var afterFirst models.Notification
	if err := database.First(&afterFirst, notification.ID).Error; err != nil {
		t.Fatalf("reload notification: %v", err)
	}
	if !afterFirst.IsRead || afterFirst.ReadAt == nil {
		t.Fatalf("expected the notification to be read with a timestamp")
	}
	firstReadAt := *afterFirst.ReadAt

	second := doJSON(t, app, http.MethodPost, path, token, nil)
	if second.StatusCode != http.StatusOK {
		t.Fatalf("second read failed with status %d", second.StatusCode)
	}

	var afterSecond models.Notification
	if err := database.First(&afterSecond, notification.ID).Error; err != nil {
		t.Fatalf("reload notification: %v", err)
	}
	if !afterSecond.ReadAt.Equal(firstReadAt) {
		t.Fatalf("repeat reads must not move readAt")
	}
}

func TestMarkNotificationReadOwnerScoped(t *testing.T) {
	app, database := newTestApp(t)
	owner := createWorker(t, database, "notif-owner@example.com")
	other := createWorker(t, database, "notif-other@example.com")

	notification, err := utils.Notify(database, utils.NotifyArgs{
		UserID:  owner.ID,
		Message: "Private note",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	response := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/notifications/%d/read", notification.ID),
		bearerToken(t, other), nil)
	if response.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 for another user's notification, got %d", response.StatusCode)
	}
}

func TestReadAllMarksEveryUnread(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "notif-all@example.com")

	for i := 0; i < 3; i++ {
		if _, err := utils.Notify(database, utils.NotifyArgs{
			UserID:  user.ID,
			Message: fmt.Sprintf("Message %d", i),
		}); err != nil {
			t.Fatalf("create notification %d: %v", i, err)
		}
	}

	response := doJSON(t, app, http.MethodPost, "/api/notifications/read-all",
		bearerToken(t, user), nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("read-all failed with status %d", response.StatusCode)
	}

	var unread int64
	database.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&unread)
	if unread != 0 {
		t.Fatalf("expected no unread notifications, got %d", unread)
	}
}

func TestCreateNotificationAdminOnly(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "notif-plain@example.com")
	target := createWorker(t, database, "notif-target@example.com")

	forbidden := doJSON(t, app, http.MethodPost, "/api/notifications/",
		bearerToken(t, user),
		map[string]interface{}{"user_id": target.ID, "message": "hello"})
	if forbidden.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-admins, got %d", forbidden.StatusCode)
	}

	admin := createTestUser(t, database, "notif-admin@example.com", models.AccountTypeEmployer, models.RoleAdmin)
	allowed := doJSON(t, app, http.MethodPost, "/api/notifications/",
		bearerToken(t, admin),
		map[string]interface{}{"user_id": target.ID, "message": "hello"})
	if allowed.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201 for admins, got %d", allowed.StatusCode)
	}
}

func TestNotificationSnapshotsAccountType(t *testing.T) {
	_, database := newTestApp(t)
	employer := createEmployer(t, database, "notif-snap@example.com")

	notification, err := utils.Notify(database, utils.NotifyArgs{
		UserID:  employer.ID,
		Message: "Snapshot check",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if notification.AccountType != models.AccountTypeEmployer {
		t.Fatalf("expected snapshotted account type, got %q", notification.AccountType)
	}
}

func TestListNotificationsFiltersUnread(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "notif-filter@example.com")

	read, err := utils.Notify(database, utils.NotifyArgs{UserID: user.ID, Message: "old"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	database.Model(read).Updates(map[string]interface{}{"is_read": true})
	if _, err := utils.Notify(database, utils.NotifyArgs{UserID: user.ID, Message: "new"}); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	response := doJSON(t, app, http.MethodGet, "/api/notifications/?is_read=false",
		bearerToken(t, user), nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("list failed with status %d", response.StatusCode)
	}
	body := decodeBody(t, response)
	items, ok := body["notifications"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected one unread notification, got %v", body["notifications"])
	}
	if count := body["unread_count"].(float64); count != 1 {
		t.Fatalf("expected unread_count 1, got %v", count)
	}
}
