package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"labtrade-api/internal/ledger"
	"labtrade-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid offer",
			err:        &model.InvalidOfferError{Reason: "bad"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_OFFER",
		},
		{
			name:       "validation",
			err:        &model.ValidationError{Field: "message", Message: "too long"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "invalid transition",
			err:        &model.InvalidTransitionError{From: model.StatusViewed, Action: model.ActionView},
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_TRANSITION",
		},
		{
			name:       "unauthorized action",
			err:        &model.UnauthorizedActionError{Action: model.ActionAccept, Role: model.RoleInitiator},
			wantStatus: http.StatusForbidden,
			wantCode:   "UNAUTHORIZED_ACTION",
		},
		{
			name:       "already finalized",
			err:        &model.AlreadyFinalizedError{Status: model.StatusRejected},
			wantStatus: http.StatusConflict,
			wantCode:   "ALREADY_FINALIZED",
		},
		{
			name:       "insufficient quantity",
			err:        &ledger.InsufficientQuantityError{ItemID: "item-1", Requested: 2, Available: 1},
			wantStatus: http.StatusConflict,
			wantCode:   "INSUFFICIENT_QUANTITY",
		},
		{
			name:       "self target",
			err:        &model.SelfTargetError{ItemID: "item-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "SELF_TARGET",
		},
		{
			name:       "not found",
			err:        &model.NotFoundError{Resource: "item", ID: "item-1"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "forbidden",
			err:        &model.ForbiddenError{RequestID: "req-1"},
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			apiErr := mapDomainError(c.err)
			assert.Equal(t, c.wantStatus, apiErr.StatusCode)
			assert.Equal(t, c.wantCode, apiErr.Code)
		})
	}
}

func TestMapDomainError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("loading request: %w", &model.NotFoundError{Resource: "exchange request", ID: "req-1"})
	apiErr := mapDomainError(wrapped)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
