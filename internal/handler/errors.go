package handler

import (
	"errors"
	"log"

	"labtrade-api/internal/ledger"
	"labtrade-api/internal/model"
	"labtrade-api/pkg/apierror"
)

// mapDomainError translates a negotiation core error into the API error
// envelope. Every domain kind gets a distinct machine-readable code so the
// UI can show a specific message per kind.
func mapDomainError(err error) *apierror.Error {
	var (
		invalidOffer *model.InvalidOfferError
		validation   *model.ValidationError
		invalidTrans *model.InvalidTransitionError
		unauthorized *model.UnauthorizedActionError
		finalized    *model.AlreadyFinalizedError
		insufficient *ledger.InsufficientQuantityError
		selfTarget   *model.SelfTargetError
		notFound     *model.NotFoundError
		forbidden    *model.ForbiddenError
	)

	switch {
	case errors.As(err, &invalidOffer):
		return apierror.UnprocessableEntity(err.Error()).WithCode("INVALID_OFFER")
	case errors.As(err, &validation):
		return apierror.ValidationError(err.Error(),
			apierror.FieldError{Field: validation.Field, Message: validation.Message})
	case errors.As(err, &invalidTrans):
		return apierror.Conflict(err.Error()).WithCode("INVALID_TRANSITION")
	case errors.As(err, &unauthorized):
		return apierror.Forbidden(err.Error()).WithCode("UNAUTHORIZED_ACTION")
	case errors.As(err, &finalized):
		return apierror.Conflict(err.Error()).WithCode("ALREADY_FINALIZED")
	case errors.As(err, &insufficient):
		return apierror.Conflict(err.Error()).WithCode("INSUFFICIENT_QUANTITY")
	case errors.As(err, &selfTarget):
		return apierror.BadRequest(err.Error()).WithCode("SELF_TARGET")
	case errors.As(err, &notFound):
		return apierror.NotFound(err.Error())
	case errors.As(err, &forbidden):
		return apierror.Forbidden(err.Error())
	}

	log.Printf("[Handler] Unexpected error: %v", err)
	return apierror.InternalError("")
}
