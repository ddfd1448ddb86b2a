package model

import "fmt"

// Domain error kinds returned by the negotiation core. All are recoverable
// at the caller boundary; the HTTP layer maps each kind to a distinct
// response code.

// InvalidOfferError indicates the offer payload violates a validation rule.
type InvalidOfferError struct {
	Reason string
}

func (e *InvalidOfferError) Error() string {
	return fmt.Sprintf("invalid offer: %s", e.Reason)
}

// InvalidTransitionError indicates a (status, action) combination outside
// the transition table.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed from status %q", e.Action, e.From)
}

// UnauthorizedActionError indicates a legal action attempted by the wrong
// party (e.g. the initiator trying to accept their own request).
type UnauthorizedActionError struct {
	Action Action
	Role   Role
}

func (e *UnauthorizedActionError) Error() string {
	return fmt.Sprintf("role %q may not perform action %q", e.Role, e.Action)
}

// AlreadyFinalizedError indicates a finalizing action on a request already
// in a terminal state.
type AlreadyFinalizedError struct {
	Status Status
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("request already finalized with status %q", e.Status)
}

// ValidationError indicates a malformed transition payload, e.g. a reject
// without a reason.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SelfTargetError indicates an initiator targeting their own item.
type SelfTargetError struct {
	ItemID string
}

func (e *SelfTargetError) Error() string {
	return fmt.Sprintf("cannot request an exchange for own item %s", e.ItemID)
}

// NotFoundError indicates a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ForbiddenError indicates the viewer is neither party to the request.
type ForbiddenError struct {
	RequestID string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("viewer is not a party to request %s", e.RequestID)
}
