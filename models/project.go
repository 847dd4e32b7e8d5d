package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses
const (
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

// Milestone statuses
const (
	MilestoneStatusNotStarted = "not_started"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusSubmitted  = "submitted"
	MilestoneStatusApproved   = "approved"
)

// Project event types. Resolution events (payment_release,
// deadline_approved) reference the event they resolve through RefEventID so
// the log stays append-only.
const (
	EventPaymentRequest    = "payment_request"
	EventPaymentRelease    = "payment_release"
	EventDeadlineExtension = "deadline_extension"
	EventDeadlineRequested = "deadline_requested"
	EventDeadlineApproved  = "deadline_approved"
	EventSupport           = "support"
)

// Project is the active engagement between one employer and one worker
type Project struct {
	gorm.Model

	Title    string `gorm:"not null" json:"title"`
	Category string `json:"category,omitempty"` // e.g. Plumbing

	Budget   float64    `gorm:"default:0" json:"budget"`
	Currency string     `gorm:"default:'NGN'" json:"currency"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Progress int        `gorm:"default:0" json:"progress"` // 0-100

	CreatedByID  uint  `gorm:"not null;index" json:"created_by_id"`
	AssignedToID *uint `gorm:"index" json:"assigned_to_id,omitempty"`

	// Optional link back to the originating job
	JobID *uint `gorm:"index" json:"job_id,omitempty"`

	Status string `gorm:"default:'active';index" json:"status"`

	// Relations
	CreatedBy  User  `json:"created_by,omitempty"`
	AssignedTo *User `json:"assigned_to,omitempty"`

	Milestones  []Milestone      `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
	Submissions []Submission     `gorm:"foreignKey:ProjectID" json:"submissions,omitempty"`
	Messages    []ProjectMessage `gorm:"foreignKey:ProjectID" json:"messages,omitempty"`
	Events      []ProjectEvent   `gorm:"foreignKey:ProjectID" json:"events,omitempty"`
}

// IsParticipant reports whether the user is the creator or the assignee.
func (p *Project) IsParticipant(userID uint) bool {
	if p.CreatedByID == userID {
		return true
	}
	return p.AssignedToID != nil && *p.AssignedToID == userID
}

// OtherParticipant returns the counterpart of the given participant, or 0
// when the project has no assignee yet.
func (p *Project) OtherParticipant(userID uint) uint {
	if p.CreatedByID == userID {
		if p.AssignedToID != nil {
			return *p.AssignedToID
		}
		return 0
	}
	return p.CreatedByID
}

// Milestone is a trackable sub-deliverable of a project
type Milestone struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index" json:"project_id"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `gorm:"default:'not_started'" json:"status"`
}

// Submission is an uploaded-file reference shared on a project
type Submission struct {
	gorm.Model
	ProjectID    uint `gorm:"not null;index" json:"project_id"`
	UploadedByID uint `gorm:"not null" json:"uploaded_by_id"`

	Filename string `json:"filename,omitempty"`
	URL      string `gorm:"not null" json:"url"`
	Note     string `json:"note,omitempty"`
}

// ProjectMessage is one conversation entry, append-only
type ProjectMessage struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index" json:"project_id"`
	SenderID  uint `gorm:"not null" json:"sender_id"`

	Text string `gorm:"not null;type:text" json:"text"`

	Sender User `json:"sender,omitempty"`
}

// ProjectEvent is one append-only audit entry for in-project actions
type ProjectEvent struct {
	gorm.Model
	ProjectID   uint `gorm:"not null;index" json:"project_id"`
	CreatedByID uint `gorm:"not null" json:"created_by_id"`

	Type string `gorm:"not null;index" json:"type"`
	Text string `json:"text,omitempty"`

	Amount           float64    `json:"amount,omitempty"`
	ProposedDeadline *time.Time `json:"proposed_deadline,omitempty"`

	// PaymentID links a payment_release event to the ledger row it recorded
	PaymentID *uint `json:"payment_id,omitempty"`
	// RefEventID links a resolution event to the request it resolves
	RefEventID *uint `gorm:"index" json:"ref_event_id,omitempty"`
}
