package model

import (
	"errors"
	"testing"
	"time"
)

func TestNextStatus_AllowedTransitions(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		role   Role
		want   Status
	}{
		{StatusPending, ActionView, RoleResponder, StatusViewed},
		{StatusPending, ActionAccept, RoleResponder, StatusAccepted},
		{StatusPending, ActionReject, RoleResponder, StatusRejected},
		{StatusPending, ActionCounterOffer, RoleResponder, StatusCounterOffer},
		{StatusPending, ActionWithdraw, RoleInitiator, StatusWithdrawn},
		{StatusViewed, ActionAccept, RoleResponder, StatusAccepted},
		{StatusViewed, ActionReject, RoleResponder, StatusRejected},
		{StatusViewed, ActionCounterOffer, RoleResponder, StatusCounterOffer},
		{StatusViewed, ActionWithdraw, RoleInitiator, StatusWithdrawn},
		{StatusCounterOffer, ActionAccept, RoleInitiator, StatusAccepted},
		{StatusCounterOffer, ActionReject, RoleInitiator, StatusRejected},
		{StatusCounterOffer, ActionWithdraw, RoleInitiator, StatusWithdrawn},
	}

	for _, c := range cases {
		got, err := NextStatus(c.from, c.action, c.role)
		if err != nil {
			t.Errorf("NextStatus(%s, %s, %s): unexpected error %v", c.from, c.action, c.role, err)
			continue
		}
		if got != c.want {
			t.Errorf("NextStatus(%s, %s, %s) = %s, want %s", c.from, c.action, c.role, got, c.want)
		}
	}
}

func TestNextStatus_WrongRole(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		role   Role
	}{
		{StatusPending, ActionAccept, RoleInitiator},
		{StatusPending, ActionWithdraw, RoleResponder},
		{StatusViewed, ActionReject, RoleInitiator},
		{StatusCounterOffer, ActionAccept, RoleResponder},
		{StatusCounterOffer, ActionWithdraw, RoleResponder},
	}

	for _, c := range cases {
		_, err := NextStatus(c.from, c.action, c.role)
		var unauthorized *UnauthorizedActionError
		if !errors.As(err, &unauthorized) {
			t.Errorf("NextStatus(%s, %s, %s): want UnauthorizedActionError, got %v", c.from, c.action, c.role, err)
		}
	}
}

func TestNextStatus_TerminalStates(t *testing.T) {
	terminals := []Status{StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired}

	for _, from := range terminals {
		for _, role := range []Role{RoleInitiator, RoleResponder} {
			// Finalizing actions on a terminal record report the record as done.
			for _, action := range []Action{ActionAccept, ActionReject, ActionWithdraw} {
				_, err := NextStatus(from, action, role)
				var finalized *AlreadyFinalizedError
				if !errors.As(err, &finalized) {
					t.Errorf("NextStatus(%s, %s, %s): want AlreadyFinalizedError, got %v", from, action, role, err)
				}
			}
			// Non-finalizing actions are plain invalid transitions.
			for _, action := range []Action{ActionView, ActionCounterOffer} {
				_, err := NextStatus(from, action, role)
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Errorf("NextStatus(%s, %s, %s): want InvalidTransitionError, got %v", from, action, role, err)
				}
			}
		}
	}
}

func TestNextStatus_MissingCombinations(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		role   Role
	}{
		{StatusViewed, ActionView, RoleResponder},
		{StatusCounterOffer, ActionView, RoleInitiator},
		{StatusCounterOffer, ActionCounterOffer, RoleInitiator},
		{StatusCounterOffer, ActionCounterOffer, RoleResponder},
	}

	for _, c := range cases {
		_, err := NextStatus(c.from, c.action, c.role)
		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("NextStatus(%s, %s, %s): want InvalidTransitionError, got %v", c.from, c.action, c.role, err)
		}
	}
}

func TestRoleOf(t *testing.T) {
	req := &ExchangeRequest{InitiatorID: "alice", ResponderID: "bob"}

	if got := req.RoleOf("alice"); got != RoleInitiator {
		t.Errorf("RoleOf(alice) = %q, want initiator", got)
	}
	if got := req.RoleOf("bob"); got != RoleResponder {
		t.Errorf("RoleOf(bob) = %q, want responder", got)
	}
	if got := req.RoleOf("mallory"); got != "" {
		t.Errorf("RoleOf(mallory) = %q, want empty", got)
	}
}

func TestExpiryDue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		status    Status
		expiresAt time.Time
		want      bool
	}{
		{StatusPending, past, true},
		{StatusViewed, past, true},
		{StatusPending, future, false},
		{StatusCounterOffer, past, false},
		{StatusAccepted, past, false},
		{StatusExpired, past, false},
	}

	for _, c := range cases {
		req := &ExchangeRequest{Status: c.status, ExpiresAt: c.expiresAt}
		if got := req.ExpiryDue(now); got != c.want {
			t.Errorf("ExpiryDue(%s, expires %v) = %v, want %v", c.status, c.expiresAt, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusViewed, StatusCounterOffer} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
