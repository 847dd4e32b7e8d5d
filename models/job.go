package models

import "gorm.io/gorm"

// BudgetRange is the min/max budget an employer attaches to a job posting
type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Job is an employer-authored posting
type Job struct {
	gorm.Model
	EmployerID uint `gorm:"not null;index" json:"employer_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null;type:text" json:"description"`

	BudgetRange    BudgetRange `gorm:"embedded;embeddedPrefix:budget_" json:"budget_range"`
	Timeline       string      `json:"timeline,omitempty"` // free-text timeline/deadline
	RequiredSkills []string    `gorm:"serializer:json" json:"required_skills"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Employer User `json:"employer,omitempty"`
}
