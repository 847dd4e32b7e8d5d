package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles and account types
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	AccountTypeWorker   = "skilled_worker"
	AccountTypeEmployer = "employer"
)

// PortfolioSample is a media item on a worker profile
type PortfolioSample struct {
	URL       string `json:"url"`
	Caption   string `json:"caption,omitempty"`
	MediaType string `json:"media_type,omitempty"` // image, video
}

// LabeledDocument pairs an uploaded file with a display label
// (certifications, employer verification docs)
type LabeledDocument struct {
	Label   string `json:"label,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

// WorkerProfile holds skilled-worker discovery and display fields
type WorkerProfile struct {
	ProfileImage       string            `json:"profile_image,omitempty"`
	FullName           string            `json:"full_name,omitempty"`
	Location           string            `json:"location,omitempty"`
	ContactPreference  string            `json:"contact_preference,omitempty"`
	ProfessionalTitle  string            `json:"professional_title,omitempty"`
	PrimarySkills      []string          `gorm:"serializer:json" json:"primary_skills,omitempty"`
	YearsOfExperience  int               `json:"years_of_experience,omitempty"`
	LanguagesSpoken    []string          `gorm:"serializer:json" json:"languages_spoken,omitempty"`
	HourlyRate         float64           `json:"hourly_rate,omitempty"`
	Availability       string            `json:"availability,omitempty"` // full-time, part-time, weekends
	Rating             float64           `json:"rating,omitempty"`
	PortfolioSamples   []PortfolioSample `gorm:"serializer:json" json:"portfolio_samples,omitempty"`
	Certifications     []LabeledDocument `gorm:"serializer:json" json:"certifications,omitempty"`
	NINDocument        string            `json:"nin_document,omitempty"`
	ShortBio           string            `json:"short_bio,omitempty"`
}

// EmployerProfile holds employer company fields
type EmployerProfile struct {
	CompanyName       string            `json:"company_name,omitempty"`
	CompanyLogo       string            `json:"company_logo,omitempty"`
	Location          string            `json:"location,omitempty"`
	ContactPreference string            `json:"contact_preference,omitempty"`
	Industry          []string          `gorm:"serializer:json" json:"industry,omitempty"`
	Website           string            `json:"website,omitempty"`
	CompanySize       string            `json:"company_size,omitempty"` // 1-10 ... 1000+
	ShortBio          string            `json:"short_bio,omitempty"`
	VerificationDocs  []LabeledDocument `gorm:"serializer:json" json:"verification_docs,omitempty"`
}

// User represents an account in the marketplace
type User struct {
	gorm.Model

	Name         string `gorm:"not null" json:"name"`
	Firstname    string `json:"firstname,omitempty"`
	Lastname     string `json:"lastname,omitempty"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string `json:"phone,omitempty"`
	PasswordHash string `gorm:"not null" json:"-"`

	Role        string `gorm:"default:'user'" json:"role"`                        // user, admin
	AccountType string `gorm:"default:'skilled_worker';index" json:"account_type"` // skilled_worker, employer

	IsActive        bool `gorm:"default:true" json:"is_active"`
	IsPhoneVerified bool `gorm:"default:false" json:"is_phone_verified"`
	IsEmailVerified bool `gorm:"default:false" json:"is_email_verified"`

	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockUntil           *time.Time `json:"-"`

	SkilledWorker WorkerProfile   `gorm:"embedded;embeddedPrefix:worker_" json:"skilled_worker"`
	Employer      EmployerProfile `gorm:"embedded;embeddedPrefix:employer_" json:"employer"`
}

// BeforeSave keeps Name derived from Firstname + Lastname whenever either is
// set, so display code never has to compose it.
func (u *User) BeforeSave(tx *gorm.DB) error {
	combined := strings.TrimSpace(strings.Join(nonEmpty(u.Firstname, u.Lastname), " "))
	if combined != "" {
		u.Name = combined
	}
	return nil
}

// IsEmployer reports whether the account is an employer account.
func (u *User) IsEmployer() bool {
	return u.AccountType == AccountTypeEmployer
}

// IsWorker reports whether the account is a skilled-worker account.
func (u *User) IsWorker() bool {
	return u.AccountType == AccountTypeWorker
}

// Locked reports whether failed logins have locked the account.
func (u *User) Locked() bool {
	return u.LockUntil != nil && u.LockUntil.After(time.Now())
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}
