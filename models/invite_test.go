package models

import "testing"

func TestInviteTransitions(t *testing.T) {
	cases := []struct {
		inviteType string
		from       string
		to         string
		allowed    bool
	}{
		{InviteTypeInvite, InviteStatusPending, InviteStatusAccepted, true},
		{InviteTypeInvite, InviteStatusPending, InviteStatusDeclined, true},
		{InviteTypeInvite, InviteStatusAccepted, InviteStatusApproved, true},
		{InviteTypeInvite, InviteStatusPending, InviteStatusApproved, false},
		{InviteTypeInvite, InviteStatusDeclined, InviteStatusAccepted, false},
		{InviteTypeInvite, InviteStatusApproved, InviteStatusDeclined, false},
		{InviteTypeInvite, InviteStatusApplied, InviteStatusApproved, false},
		{InviteTypeApplication, InviteStatusApplied, InviteStatusApproved, true},
		{InviteTypeApplication, InviteStatusApplied, InviteStatusDeclined, true},
		{InviteTypeApplication, InviteStatusApplied, InviteStatusAccepted, false},
		{InviteTypeApplication, InviteStatusPending, InviteStatusAccepted, false},
		{InviteTypeApplication, InviteStatusApproved, InviteStatusDeclined, false},
	}

	for _, tc := range cases {
		got := CanTransition(tc.inviteType, tc.from, tc.to)
		if got != tc.allowed {
			t.Errorf("CanTransition(%s, %s -> %s) = %v, want %v",
				tc.inviteType, tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestTransitionRejectsInvalidMoveWithoutMutating(t *testing.T) {
	invite := Invite{Type: InviteTypeInvite, Status: InviteStatusPending}

	if err := invite.Transition(InviteStatusApproved); err == nil {
		t.Fatalf("expected pending -> approved to fail for invites")
	}
	if invite.Status != InviteStatusPending {
		t.Fatalf("failed transition must not change status, got %q", invite.Status)
	}

	if err := invite.Transition(InviteStatusAccepted); err != nil {
		t.Fatalf("pending -> accepted should succeed: %v", err)
	}
	if err := invite.Transition(InviteStatusApproved); err != nil {
		t.Fatalf("accepted -> approved should succeed: %v", err)
	}
	if !invite.Terminal() {
		t.Fatalf("approved invites must be terminal")
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Invite{
		{Type: InviteTypeInvite, Status: InviteStatusDeclined},
		{Type: InviteTypeInvite, Status: InviteStatusApproved},
		{Type: InviteTypeApplication, Status: InviteStatusApproved},
		{Type: InviteTypeApplication, Status: InviteStatusDeclined},
	}
	for _, invite := range terminal {
		if !invite.Terminal() {
			t.Errorf("%s/%s should be terminal", invite.Type, invite.Status)
		}
	}

	open := []Invite{
		{Type: InviteTypeInvite, Status: InviteStatusPending},
		{Type: InviteTypeInvite, Status: InviteStatusAccepted},
		{Type: InviteTypeApplication, Status: InviteStatusApplied},
	}
	for _, invite := range open {
		if invite.Terminal() {
			t.Errorf("%s/%s should not be terminal", invite.Type, invite.Status)
		}
	}
}
