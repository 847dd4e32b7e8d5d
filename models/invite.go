package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Invite records both flows against a job:
// - type = invite: employer invites a worker (pending -> accepted/declined,
//   accepted -> approved)
// - type = application: worker applies (applied -> approved/declined)
const (
	InviteTypeInvite      = "invite"
	InviteTypeApplication = "application"

	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusApplied  = "applied"
	InviteStatusApproved = "approved"
)

// Invite is the employer/worker/job ledger row behind invites and applications
type Invite struct {
	gorm.Model
	EmployerID uint `gorm:"not null;index" json:"employer_id"`
	WorkerID   uint `gorm:"not null;index" json:"worker_id"`
	JobID      uint `gorm:"not null;index" json:"job_id"`

	Message string `json:"message,omitempty"`
	Type    string `gorm:"default:'invite';index" json:"type"`
	Status  string `gorm:"default:'pending';index" json:"status"`

	// Relations
	Employer User `json:"employer,omitempty"`
	Worker   User `json:"worker,omitempty"`
	Job      Job  `json:"job,omitempty"`
}

// inviteTransitions is the authoritative state machine for both flows. The
// two vocabularies share one status column, so every status write must go
// through Transition.
var inviteTransitions = map[string]map[string][]string{
	InviteTypeInvite: {
		InviteStatusPending:  {InviteStatusAccepted, InviteStatusDeclined},
		InviteStatusAccepted: {InviteStatusApproved},
	},
	InviteTypeApplication: {
		InviteStatusApplied: {InviteStatusApproved, InviteStatusDeclined},
	},
}

// CanTransition reports whether an invite of the given type may move between
// the two statuses.
func CanTransition(inviteType, from, to string) bool {
	for _, next := range inviteTransitions[inviteType][from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status ends the flow for the given type.
func (i *Invite) Terminal() bool {
	return len(inviteTransitions[i.Type][i.Status]) == 0
}

// Transition moves the invite to the target status or fails without touching
// the record.
func (i *Invite) Transition(to string) error {
	if !CanTransition(i.Type, i.Status, to) {
		return fmt.Errorf("cannot move %s from %s to %s", i.Type, i.Status, to)
	}
	i.Status = to
	return nil
}
