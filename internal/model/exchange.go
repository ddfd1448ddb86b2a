package model

import "time"

// Status is the current negotiation state of an exchange request.
type Status string

// Exchange request statuses. Accepted, rejected, withdrawn and expired are
// terminal; counter_offer hands the accept/reject decision back to the
// initiator.
const (
	StatusPending      Status = "pending"
	StatusViewed       Status = "viewed"
	StatusAccepted     Status = "accepted"
	StatusRejected     Status = "rejected"
	StatusCounterOffer Status = "counter_offer"
	StatusWithdrawn    Status = "withdrawn"
	StatusExpired      Status = "expired"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn, StatusExpired:
		return true
	}
	return false
}

// IsValidStatus reports whether s is a known status value.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusViewed, StatusAccepted, StatusRejected,
		StatusCounterOffer, StatusWithdrawn, StatusExpired:
		return true
	}
	return false
}

// Action is a caller-requested transition on an exchange request.
type Action string

// Exchange request actions.
const (
	ActionView         Action = "view"
	ActionAccept       Action = "accept"
	ActionReject       Action = "reject"
	ActionCounterOffer Action = "counter_offer"
	ActionWithdraw     Action = "withdraw"
)

// IsValidAction reports whether a is a known action value.
func IsValidAction(a Action) bool {
	switch a {
	case ActionView, ActionAccept, ActionReject, ActionCounterOffer, ActionWithdraw:
		return true
	}
	return false
}

// Role identifies which side of the negotiation an actor is on.
type Role string

// Negotiation roles.
const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// transitionRule names who may perform an action from a given status and
// where it leads.
type transitionRule struct {
	by Role
	to Status
}

// transitions is the authoritative (from, action) -> (role, to) table.
// Anything absent from it is an illegal transition. In counter_offer the
// accept/reject decision belongs to the initiator, scoped to the counter.
var transitions = map[Status]map[Action]transitionRule{
	StatusPending: {
		ActionView:         {by: RoleResponder, to: StatusViewed},
		ActionAccept:       {by: RoleResponder, to: StatusAccepted},
		ActionReject:       {by: RoleResponder, to: StatusRejected},
		ActionCounterOffer: {by: RoleResponder, to: StatusCounterOffer},
		ActionWithdraw:     {by: RoleInitiator, to: StatusWithdrawn},
	},
	StatusViewed: {
		ActionAccept:       {by: RoleResponder, to: StatusAccepted},
		ActionReject:       {by: RoleResponder, to: StatusRejected},
		ActionCounterOffer: {by: RoleResponder, to: StatusCounterOffer},
		ActionWithdraw:     {by: RoleInitiator, to: StatusWithdrawn},
	},
	StatusCounterOffer: {
		ActionAccept:   {by: RoleInitiator, to: StatusAccepted},
		ActionReject:   {by: RoleInitiator, to: StatusRejected},
		ActionWithdraw: {by: RoleInitiator, to: StatusWithdrawn},
	},
}

// NextStatus resolves a requested transition. It returns the resulting status
// or one of AlreadyFinalizedError (finalizing action on a terminal record),
// InvalidTransitionError (combination not in the table) or
// UnauthorizedActionError (legal action, wrong party). It never mutates
// anything; callers apply the result under their own concurrency discipline.
func NextStatus(from Status, action Action, role Role) (Status, error) {
	if from.IsTerminal() {
		switch action {
		case ActionAccept, ActionReject, ActionWithdraw:
			return "", &AlreadyFinalizedError{Status: from}
		}
		return "", &InvalidTransitionError{From: from, Action: action}
	}

	rule, ok := transitions[from][action]
	if !ok {
		return "", &InvalidTransitionError{From: from, Action: action}
	}
	if rule.by != role {
		return "", &UnauthorizedActionError{Action: action, Role: role}
	}
	return rule.to, nil
}

// CounterOffer is the responder's proposed alternative. At least one of
// Message or Offer must be present.
type CounterOffer struct {
	Message    string    `json:"message,omitempty"`
	Offer      *Offer    `json:"offer,omitempty"`
	ProposedAt time.Time `json:"proposed_at"`
}

// StatusChange is one append-only audit entry in a request's history.
type StatusChange struct {
	Status     Status    `json:"status"`
	ActorID    string    `json:"actor_id,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExchangeRequest is a single barter negotiation between an initiator and
// the owner of the target item. Quantities and the offer are fixed at
// creation; only status (and its attachments) change afterwards.
type ExchangeRequest struct {
	ID                string         `json:"id"`
	RequestNumber     string         `json:"request_number"`
	InitiatorID       string         `json:"initiator_id"`
	ResponderID       string         `json:"responder_id"`
	TargetItemID      string         `json:"target_item_id"`
	RequestedQuantity int            `json:"requested_quantity"`
	Offer             Offer          `json:"offer"`
	Message           string         `json:"message,omitempty"`
	Status            Status         `json:"status"`
	CounterOffer      *CounterOffer  `json:"counter_offer,omitempty"`
	RejectionReason   string         `json:"rejection_reason,omitempty"`
	WithdrawalReason  string         `json:"withdrawal_reason,omitempty"`
	History           []StatusChange `json:"history,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	ViewedAt          *time.Time     `json:"viewed_at,omitempty"`
	ExpiresAt         time.Time      `json:"expires_at"`
}

// RoleOf returns the viewer's role in this request, or "" if the viewer is
// neither party.
func (r *ExchangeRequest) RoleOf(viewerID string) Role {
	switch viewerID {
	case r.InitiatorID:
		return RoleInitiator
	case r.ResponderID:
		return RoleResponder
	}
	return ""
}

// ExpiryDue reports whether the request should be expired: past its deadline
// and still awaiting a response.
func (r *ExchangeRequest) ExpiryDue(now time.Time) bool {
	if r.Status != StatusPending && r.Status != StatusViewed {
		return false
	}
	return now.After(r.ExpiresAt)
}
