package controller

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"skilllink/config"
	"skilllink/models"
	"skilllink/utils"
)

const (
	maxFailedLogins = 5
	loginLockPeriod = 15 * time.Minute
)

type RegisterRequest struct {
	Firstname   string                  `json:"firstname" validate:"omitempty,max=100"`
	Lastname    string                  `json:"lastname" validate:"omitempty,max=100"`
	Email       string                  `json:"email" validate:"required,email"`
	Phone       string                  `json:"phone" validate:"required"`
	Password    string                  `json:"password" validate:"required,min=6"`
	AccountType string                  `json:"account_type" validate:"omitempty,oneof=skilled_worker employer"`
	Worker      *models.WorkerProfile   `json:"skilled_worker"`
	Employer    *models.EmployerProfile `json:"employer"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

var googleOAuthConfig *oauth2.Config

// InitGoogleOAuth builds the oauth2 config from the app config. Called from
// route setup; a missing client id simply disables the Google endpoints.
func InitGoogleOAuth() {
	googleOAuthConfig = &oauth2.Config{
		ClientID:     config.AppConfig.Google.ClientID,
		ClientSecret: config.AppConfig.Google.ClientSecret,
		RedirectURL:  config.AppConfig.Google.RedirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// Register creates a new account. Profile sub-objects may be supplied
// inline, matching the onboarding UI.
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
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
	if req.Firstname == "" && req.Lastname == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "firstname or lastname is required",
		})
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "email must be a valid email",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already in use",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	accountType := models.AccountTypeWorker
	if req.AccountType == models.AccountTypeEmployer {
		accountType = models.AccountTypeEmployer
	}

	user := models.User{
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
		AccountType:  accountType,
		IsActive:     true,
	}
	if req.Worker != nil {
		user.SkilledWorker = *req.Worker
	}
	if req.Employer != nil {
		user.Employer = *req.Employer
	}

	if err := config.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	token, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{User: &user, Token: token})
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
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

	var user models.User
	if err := config.DB.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if user.Locked() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Account temporarily locked. Try again later.",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			user.LockUntil = utils.Pointer(time.Now().Add(loginLockPeriod))
			user.FailedLoginAttempts = 0
		}
		config.DB.Save(&user)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if user.FailedLoginAttempts > 0 || user.LockUntil != nil {
		user.FailedLoginAttempts = 0
		user.LockUntil = nil
		config.DB.Save(&user)
	}

	token, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{User: &user, Token: token})
}

// Me returns the authenticated user.
func Me(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile patches top-level name fields, the account type, and the
// profile sub-objects.
func UpdateProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Firstname   *string                 `json:"firstname"`
		Lastname    *string                 `json:"lastname"`
		AccountType *string                 `json:"account_type"`
		Worker      *models.WorkerProfile   `json:"skilled_worker"`
		Employer    *models.EmployerProfile `json:"employer"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Firstname != nil {
		user.Firstname = *input.Firstname
	}
	if input.Lastname != nil {
		user.Lastname = *input.Lastname
	}
	if input.AccountType != nil {
		if *input.AccountType != models.AccountTypeWorker && *input.AccountType != models.AccountTypeEmployer {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid account type",
			})
		}
		user.AccountType = *input.AccountType
	}
	if input.Worker != nil {
		user.SkilledWorker = *input.Worker
	}
	if input.Employer != nil {
		user.Employer = *input.Employer
	}

	if err := config.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{"user": user})
}

func requireEmployer(c *fiber.Ctx) (*models.User, error) {
	user := c.Locals("user").(*models.User)
	if !user.IsEmployer() {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Employer account required",
		})
	}
	return user, nil
}

// EmployerBasic patches the first onboarding step of an employer profile.
func EmployerBasic(c *fiber.Ctx) error {
	user, errResp := requireEmployer(c)
	if user == nil {
		return errResp
	}

	var payload models.EmployerProfile
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if payload.CompanyName != "" {
		user.Employer.CompanyName = payload.CompanyName
	}
	if payload.CompanyLogo != "" {
		user.Employer.CompanyLogo = payload.CompanyLogo
	}
	if payload.Location != "" {
		user.Employer.Location = payload.Location
	}
	if payload.ContactPreference != "" {
		user.Employer.ContactPreference = payload.ContactPreference
	}

	if err := config.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}
	return c.JSON(fiber.Map{"user": user})
}

// EmployerDetails patches the company-details onboarding step.
func EmployerDetails(c *fiber.Ctx) error {
	user, errResp := requireEmployer(c)
	if user == nil {
		return errResp
	}

	var payload models.EmployerProfile
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(payload.Industry) > 0 {
		user.Employer.Industry = payload.Industry
	}
	if payload.CompanySize != "" {
		user.Employer.CompanySize = payload.CompanySize
	}
	if payload.Website != "" {
		user.Employer.Website = payload.Website
	}
	if payload.ShortBio != "" {
		user.Employer.ShortBio = payload.ShortBio
	}

	if err := config.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}
	return c.JSON(fiber.Map{"user": user})
}

// EmployerTrust replaces the employer verification documents.
func EmployerTrust(c *fiber.Ctx) error {
	user, errResp := requireEmployer(c)
	if user == nil {
		return errResp
	}

	var payload struct {
		VerificationDocs []models.LabeledDocument `json:"verification_docs"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if payload.VerificationDocs != nil {
		user.Employer.VerificationDocs = payload.VerificationDocs
	}

	if err := config.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}
	return c.JSON(fiber.Map{"user": user})
}

// SendOTP issues a verification code to the given email and stores it with a
// TTL.
func SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))
	otp, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate code",
		})
	}
	if err := utils.OTPs().Set(email, otp); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store code",
		})
	}
	if err := utils.SendOTPEmail(email, otp); err != nil {
		utils.LogError("otp_email", err, map[string]interface{}{"email": email})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send code",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// VerifyOTP checks a code and marks the matching account's email verified.
func VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))
	stored, ok := utils.OTPs().Get(email)
	if !ok || stored != req.OTP {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired code",
		})
	}
	utils.OTPs().Delete(email)

	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err == nil {
		user.IsEmailVerified = true
		config.DB.Save(&user)
	}

	return c.JSON(fiber.Map{"ok": true})
}

// GoogleOAuth redirects to Google's consent screen.
func GoogleOAuth(c *fiber.Ctx) error {
	if googleOAuthConfig == nil || googleOAuthConfig.ClientID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Google login is not configured",
		})
	}
	state, err := utils.GenerateOTP()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start OAuth flow",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HTTPOnly: true,
		Expires:  time.Now().Add(10 * time.Minute),
	})
	url := googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

// GoogleOAuthCallback exchanges the code, loads the Google profile, and
// issues the normal JWT for an existing or freshly created account.
func GoogleOAuthCallback(c *fiber.Ctx) error {
	if googleOAuthConfig == nil || googleOAuthConfig.ClientID == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Google login is not configured",
		})
	}
	if c.Query("state") == "" || c.Query("state") != c.Cookies("oauth_state") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid OAuth state",
		})
	}

	token, err := googleOAuthConfig.Exchange(context.Background(), c.Query("code"))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "OAuth exchange failed",
		})
	}

	client := googleOAuthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch Google profile",
		})
	}
	defer resp.Body.Close()

	var info struct {
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Email == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to parse Google profile",
		})
	}

	email := strings.ToLower(info.Email)
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		// First Google login creates a worker account with a random password
		random, err := utils.GenerateOTP()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create account",
			})
		}
		hashed, _ := bcrypt.GenerateFromPassword([]byte(random), bcrypt.DefaultCost)
		user = models.User{
			Firstname:       info.GivenName,
			Lastname:        info.FamilyName,
			Email:           email,
			PasswordHash:    string(hashed),
			Role:            models.RoleUser,
			AccountType:     models.AccountTypeWorker,
			IsActive:        true,
			IsEmailVerified: true,
		}
		if err := config.DB.Create(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create account",
			})
		}
	}

	jwtToken, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{User: &user, Token: jwtToken})
}
