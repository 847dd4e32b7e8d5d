package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"skilllink/config"
	"skilllink/models"
	"skilllink/routes"
	"skilllink/utils"
)

const testPassword = "StrongPass1"

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	config.AppConfig = config.Config{
		Environment:    "test",
		JWTSecret:      "test-secret-key",
		JWTExpiry:      time.Hour,
		UploadDir:      t.TempDir(),
		RateLimitLogin: 1000,
	}

	databasePath := filepath.Join(t.TempDir(), "skilllink-test.db")
	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.MigrateDB(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	config.DB = database

	app := fiber.New()
	routes.SetupRoutes(app)
	return app, database
}

func createTestUser(t *testing.T, database *gorm.DB, email, accountType, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Firstname:    "Test",
		Lastname:     "User",
		Email:        email,
		Phone:        "08000000000",
		PasswordHash: string(hash),
		Role:         role,
		AccountType:  accountType,
		IsActive:     true,
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func createWorker(t *testing.T, database *gorm.DB, email string) *models.User {
	return createTestUser(t, database, email, models.AccountTypeWorker, models.RoleUser)
}

func createEmployer(t *testing.T, database *gorm.DB, email string) *models.User {
	return createTestUser(t, database, email, models.AccountTypeEmployer, models.RoleUser)
}

func bearerToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if auth != "" {
		request.Header.Set("Authorization", auth)
	}

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func decodeBody(t *testing.T, response *http.Response) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return result
}

func createJob(t *testing.T, database *gorm.DB, employerID uint, title string) *models.Job {
	t.Helper()
	job := models.Job{
		EmployerID:     employerID,
		Title:          title,
		Description:    "Fix the kitchen sink and replace the faucet",
		BudgetRange:    models.BudgetRange{Min: 100, Max: 500},
		RequiredSkills: []string{"plumbing"},
		IsActive:       true,
	}
	if err := database.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return &job
}

func createProject(t *testing.T, database *gorm.DB, employerID, workerID uint, status string) *models.Project {
	t.Helper()
	project := models.Project{
		Title:        "Bathroom renovation",
		Budget:       1000,
		Currency:     "NGN",
		CreatedByID:  employerID,
		AssignedToID: &workerID,
		Status:       status,
	}
	if err := database.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return &project
}

func depositFor(t *testing.T, database *gorm.DB, employerID uint, amount float64) {
	t.Helper()
	payment := models.Payment{
		EmployerID: &employerID,
		Amount:     amount,
		Currency:   "NGN",
		Type:       models.PaymentTypeDeposit,
		Status:     models.PaymentStatusCompleted,
	}
	if err := database.Create(&payment).Error; err != nil {
		t.Fatalf("create deposit: %v", err)
	}
}
