package controller_test

import (
	"net/http"
	"strings"
	"testing"

	"skilllink/models"
)

func TestRegisterCreatesUserWithDerivedName(t *testing.T) {
	app, database := newTestApp(t)

	response := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"firstname":    "Ada",
		"lastname":     "Obi",
		"email":        "ada@example.com",
		"phone":        "08011111111",
		"password":     "Password123",
		"account_type": "skilled_worker",
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	body := decodeBody(t, response)
	if body["token"] == "" || body["token"] == nil {
		t.Fatalf("expected a token in the response")
	}

	var user models.User
	if err := database.Where("email = ?", "ada@example.com").First(&user).Error; err != nil {
		t.Fatalf("load created user: %v", err)
	}
	if user.Name != "Ada Obi" {
		t.Fatalf("expected derived name %q, got %q", "Ada Obi", user.Name)
	}
	if user.AccountType != models.AccountTypeWorker {
		t.Fatalf("expected worker account, got %q", user.AccountType)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app, database := newTestApp(t)
	createWorker(t, database, "taken@example.com")

	response := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"firstname": "Second",
		"email":     "taken@example.com",
		"phone":     "08022222222",
		"password":  "Password123",
	})
	if response.StatusCode != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", response.StatusCode)
	}
}

func TestRegisterNormalizesEmailCase(t *testing.T) {
	app, database := newTestApp(t)

	response := doJSON(t, app, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"firstname": "Case",
		"email":     "MiXeD@Example.COM",
		"phone":     "08033333333",
		"password":  "Password123",
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", response.StatusCode)
	}

	var user models.User
	if err := database.Where("email = ?", "mixed@example.com").First(&user).Error; err != nil {
		t.Fatalf("expected lowercased email to be stored: %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, database := newTestApp(t)
	createWorker(t, database, "login@example.com")

	response := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "login@example.com",
		"password": "WrongPassword",
	})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
}

func TestLoginReturnsTokenAndHidesPasswordHash(t *testing.T) {
	app, database := newTestApp(t)
	createWorker(t, database, "login-ok@example.com")

	response := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    "login-ok@example.com",
		"password": testPassword,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	body := decodeBody(t, response)
	if body["token"] == nil || body["token"] == "" {
		t.Fatalf("expected a token in the response")
	}
	userPayload, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a user object in the response")
	}
	for key := range userPayload {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Fatalf("password material leaked in response under key %q", key)
		}
	}
}

func TestMeRequiresAuthentication(t *testing.T) {
	app, _ := newTestApp(t)

	response := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", response.StatusCode)
	}
}

func TestUpdateProfileRederivesName(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "rename@example.com")

	response := doJSON(t, app, http.MethodPatch, "/api/auth/profile", bearerToken(t, user), map[string]interface{}{
		"firstname": "Ngozi",
		"lastname":  "Eze",
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", response.StatusCode)
	}

	var updated models.User
	if err := database.First(&updated, user.ID).Error; err != nil {
		t.Fatalf("load updated user: %v", err)
	}
	if updated.Name != "Ngozi Eze" {
		t.Fatalf("expected name %q, got %q", "Ngozi Eze", updated.Name)
	}
}

func TestInactiveAccountIsRejected(t *testing.T) {
	app, database := newTestApp(t)
	user := createWorker(t, database, "inactive@example.com")
	token := bearerToken(t, user)
	if err := database.Model(user).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	response := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", response.StatusCode)
	}
}
