package models

import "gorm.io/gorm"

// Review is a post-completion rating between the two project participants.
// One review per (project, reviewer, reviewee).
type Review struct {
	gorm.Model
	ProjectID  uint `gorm:"not null;index;uniqueIndex:idx_review_once" json:"project_id"`
	ReviewerID uint `gorm:"not null;index;uniqueIndex:idx_review_once" json:"reviewer_id"`
	RevieweeID uint `gorm:"not null;index;uniqueIndex:idx_review_once" json:"reviewee_id"`

	Rating          int    `gorm:"not null" json:"rating"` // 1-5
	PublicFeedback  string `json:"public_feedback,omitempty"`
	PrivateFeedback string `json:"private_feedback,omitempty"`

	// Relations
	Project  Project `json:"project,omitempty"`
	Reviewer User    `json:"reviewer,omitempty"`
	Reviewee User    `json:"reviewee,omitempty"`
}
