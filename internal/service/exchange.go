package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"labtrade-api/internal/ledger"
	"labtrade-api/internal/model"
	"labtrade-api/internal/notifier"
	"labtrade-api/internal/repository"
	"labtrade-api/pkg/uid"
)

// MaxMessageLength bounds the free-text message attached at creation.
const MaxMessageLength = 1000

// DefaultResponseTTL is how long a request stays respondable before it
// expires.
const DefaultResponseTTL = 7 * 24 * time.Hour

// ExchangeService owns the exchange negotiation workflow: creation,
// role-scoped retrieval and the state-machine transitions. Availability
// checks at creation are advisory; the ledger commit during accept is the
// only hard quantity enforcement point.
type ExchangeService struct {
	exchangeRepo repository.ExchangeRepository
	itemRepo     repository.ItemRepository
	ledger       ledger.Ledger
	notifier     notifier.Notifier
	responseTTL  time.Duration
}

// NewExchangeService creates a new exchange service.
// Returns nil if any required dependency is nil.
func NewExchangeService(
	exchangeRepo repository.ExchangeRepository,
	itemRepo repository.ItemRepository,
	ldg ledger.Ledger,
	sink notifier.Notifier,
	responseTTL time.Duration,
) *ExchangeService {
	if exchangeRepo == nil || itemRepo == nil || ldg == nil {
		return nil
	}
	if sink == nil {
		sink = notifier.NewLogNotifier()
	}
	if responseTTL <= 0 {
		responseTTL = DefaultResponseTTL
	}
	return &ExchangeService{
		exchangeRepo: exchangeRepo,
		itemRepo:     itemRepo,
		ledger:       ldg,
		notifier:     sink,
		responseTTL:  responseTTL,
	}
}

// CreateInput is the payload for creating an exchange request.
type CreateInput struct {
	TargetItemID      string      `json:"target_item_id"`
	RequestedQuantity int         `json:"requested_quantity"`
	Offer             model.Offer `json:"offer"`
	Message           string      `json:"message,omitempty"`
}

// RespondInput carries the attachments of a respond action. Which fields are
// required depends on the action.
type RespondInput struct {
	RejectionReason  string              `json:"rejection_reason,omitempty"`
	WithdrawalReason string              `json:"withdrawal_reason,omitempty"`
	CounterOffer     *model.CounterOffer `json:"counter_offer,omitempty"`
}

// Create validates and persists a new exchange request in pending state.
// The availability checks here are advisory only; nothing is reserved.
func (s *ExchangeService) Create(ctx context.Context, initiatorID string, in CreateInput) (*model.ExchangeRequest, error) {
	if in.RequestedQuantity < 1 {
		return nil, &model.ValidationError{Field: "requested_quantity", Message: "must be >= 1"}
	}
	if len(in.Message) > MaxMessageLength {
		return nil, &model.ValidationError{
			Field:   "message",
			Message: fmt.Sprintf("must not exceed %d characters", MaxMessageLength),
		}
	}

	target, err := s.itemRepo.GetItem(ctx, in.TargetItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up target item: %w", err)
	}
	if target == nil {
		return nil, &model.NotFoundError{Resource: "item", ID: in.TargetItemID}
	}
	if target.OwnerID == initiatorID {
		return nil, &model.SelfTargetError{ItemID: target.ID}
	}
	if !target.IsExchangeable() {
		return nil, &model.InvalidOfferError{Reason: "target item is not listed for exchange"}
	}

	if err := s.validateOffer(ctx, initiatorID, &in.Offer); err != nil {
		return nil, err
	}

	available, err := s.ledger.Available(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check target availability: %w", err)
	}
	if available < in.RequestedQuantity {
		return nil, &ledger.InsufficientQuantityError{
			ItemID:    target.ID,
			Requested: in.RequestedQuantity,
			Available: available,
		}
	}

	now := time.Now().UTC()
	req := &model.ExchangeRequest{
		ID:                uid.New(),
		RequestNumber:     uid.RequestNumber(),
		InitiatorID:       initiatorID,
		ResponderID:       target.OwnerID,
		TargetItemID:      target.ID,
		RequestedQuantity: in.RequestedQuantity,
		Offer:             in.Offer,
		Message:           in.Message,
		Status:            model.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		ExpiresAt:         now.Add(s.responseTTL),
	}
	req.History = []model.StatusChange{{
		Status:     model.StatusPending,
		ActorID:    initiatorID,
		OccurredAt: now,
	}}

	if err := s.exchangeRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist exchange request: %w", err)
	}

	s.emit(ctx, req, notifier.EventCreated, initiatorID)
	return req, nil
}

// validateOffer applies the rules that need a catalog lookup on top of the
// structural Offer.Validate.
func (s *ExchangeService) validateOffer(ctx context.Context, ownerID string, offer *model.Offer) error {
	if err := offer.Validate(); err != nil {
		return &model.InvalidOfferError{Reason: err.Error()}
	}
	if offer.Kind != model.OfferKindExistingItem {
		return nil
	}

	item, err := s.itemRepo.GetItem(ctx, offer.ExistingItem.ItemID)
	if err != nil {
		return fmt.Errorf("failed to look up offered item: %w", err)
	}
	if item == nil {
		return &model.InvalidOfferError{Reason: fmt.Sprintf("offered item %s not found", offer.ExistingItem.ItemID)}
	}
	if item.OwnerID != ownerID {
		return &model.InvalidOfferError{Reason: fmt.Sprintf("offered item %s is not owned by the offering party", item.ID)}
	}
	if !item.IsExchangeable() {
		return &model.InvalidOfferError{Reason: fmt.Sprintf("offered item %s is not listed for exchange", item.ID)}
	}

	ok, err := s.ledger.CheckAvailable(ctx, item.ID, offer.ExistingItem.Quantity)
	if err != nil {
		return fmt.Errorf("failed to check offered item availability: %w", err)
	}
	if !ok {
		return &model.InvalidOfferError{
			Reason: fmt.Sprintf("offered item %s has fewer than %d units available", item.ID, offer.ExistingItem.Quantity),
		}
	}
	return nil
}

// Get returns a request visible to the viewer, expiring it lazily if its
// deadline has passed.
func (s *ExchangeService) Get(ctx context.Context, viewerID, requestID string) (*model.ExchangeRequest, error) {
	req, err := s.exchangeRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange request: %w", err)
	}
	if req == nil {
		return nil, &model.NotFoundError{Resource: "exchange request", ID: requestID}
	}
	if req.RoleOf(viewerID) == "" {
		return nil, &model.ForbiddenError{RequestID: requestID}
	}

	return s.expireIfDue(ctx, req), nil
}

// List returns the viewer's requests, newest first, with the total count.
func (s *ExchangeService) List(ctx context.Context, viewerID string, filter repository.ExchangeFilter) ([]*model.ExchangeRequest, int64, error) {
	if filter.Role == "" {
		filter.Role = repository.RoleFilterAll
	}

	reqs, total, err := s.exchangeRepo.ListByViewer(ctx, viewerID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exchange requests: %w", err)
	}

	for i, req := range reqs {
		reqs[i] = s.expireIfDue(ctx, req)
	}
	return reqs, total, nil
}

// Respond applies a state-machine transition on behalf of the viewer.
func (s *ExchangeService) Respond(ctx context.Context, viewerID, requestID string, action model.Action, in RespondInput) (*model.ExchangeRequest, error) {
	req, err := s.exchangeRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange request: %w", err)
	}
	if req == nil {
		return nil, &model.NotFoundError{Resource: "exchange request", ID: requestID}
	}
	role := req.RoleOf(viewerID)
	if role == "" {
		return nil, &model.ForbiddenError{RequestID: requestID}
	}

	req = s.expireIfDue(ctx, req)

	next, err := model.NextStatus(req.Status, action, role)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	upd := repository.StatusUpdate{ActorID: viewerID, OccurredAt: now}

	switch action {
	case model.ActionView:
		viewedAt := now
		upd.ViewedAt = &viewedAt
	case model.ActionReject:
		if in.RejectionReason == "" {
			return nil, &model.ValidationError{Field: "rejection_reason", Message: "required for reject"}
		}
		upd.RejectionReason = in.RejectionReason
		upd.Note = in.RejectionReason
	case model.ActionWithdraw:
		if in.WithdrawalReason == "" {
			return nil, &model.ValidationError{Field: "withdrawal_reason", Message: "required for withdraw"}
		}
		upd.WithdrawalReason = in.WithdrawalReason
		upd.Note = in.WithdrawalReason
	case model.ActionCounterOffer:
		counter, err := s.validateCounterOffer(ctx, req.ResponderID, in.CounterOffer, now)
		if err != nil {
			return nil, err
		}
		upd.CounterOffer = counter
		upd.Note = counter.Message
	}

	if action == model.ActionAccept {
		return s.accept(ctx, req, viewerID, next, upd)
	}

	ok, err := s.exchangeRepo.UpdateStatus(ctx, req.ID, req.Status, next, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, req.ID, action)
	}

	s.applyLocal(req, next, upd)
	s.emit(ctx, req, eventForAction(action), viewerID)
	return req, nil
}

// accept is the critical path: the compare-and-swap to accepted decides the
// race between concurrent responders, and only the winner commits the
// ledger. A failed commit reverts the status so no quantity is ever
// over-committed.
func (s *ExchangeService) accept(ctx context.Context, req *model.ExchangeRequest, viewerID string, next model.Status, upd repository.StatusUpdate) (*model.ExchangeRequest, error) {
	from := req.Status

	ok, err := s.exchangeRepo.UpdateStatus(ctx, req.ID, from, next, upd)
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	if !ok {
		return nil, s.lostRace(ctx, req.ID, model.ActionAccept)
	}

	if err := s.ledger.Commit(ctx, req.TargetItemID, req.RequestedQuantity); err != nil {
		revert := repository.StatusUpdate{
			ActorID:    viewerID,
			Note:       "acceptance reverted: quantity no longer available",
			OccurredAt: time.Now().UTC(),
		}
		if _, revertErr := s.exchangeRepo.UpdateStatus(ctx, req.ID, next, from, revert); revertErr != nil {
			log.Printf("[ExchangeService] Failed to revert acceptance of %s: %v", req.ID, revertErr)
		}
		return nil, err
	}

	s.applyLocal(req, next, upd)
	s.emit(ctx, req, notifier.EventAccepted, viewerID)
	return req, nil
}

// ReleaseCommitted returns an accepted request's committed quantity to the
// ledger, for when the physical handover falls through after acceptance. The
// release is keyed by the request ID, so retries and repeated calls return
// false without touching stock again. A first release is recorded in the
// request's history.
func (s *ExchangeService) ReleaseCommitted(ctx context.Context, requestID string) (bool, error) {
	req, err := s.exchangeRepo.GetByID(ctx, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to load exchange request: %w", err)
	}
	if req == nil {
		return false, &model.NotFoundError{Resource: "exchange request", ID: requestID}
	}
	if req.Status != model.StatusAccepted {
		return false, &model.ValidationError{Field: "status", Message: "only accepted requests can be restocked"}
	}

	released, err := s.ledger.Release(ctx, "restock:"+req.ID, req.TargetItemID, req.RequestedQuantity)
	if err != nil {
		return false, fmt.Errorf("failed to release committed quantity: %w", err)
	}
	if !released {
		return false, nil
	}

	note := repository.StatusUpdate{
		Note:       "committed quantity restocked",
		OccurredAt: time.Now().UTC(),
	}
	if _, err := s.exchangeRepo.UpdateStatus(ctx, req.ID, model.StatusAccepted, model.StatusAccepted, note); err != nil {
		log.Printf("[ExchangeService] Failed to record restock of %s: %v", req.ID, err)
	}
	return true, nil
}

// validateCounterOffer checks the responder's counter payload. An embedded
// existing-item offer must reference the responder's own listed items.
func (s *ExchangeService) validateCounterOffer(ctx context.Context, responderID string, counter *model.CounterOffer, now time.Time) (*model.CounterOffer, error) {
	if counter == nil {
		return nil, &model.ValidationError{Field: "counter_offer", Message: "required for counter_offer"}
	}
	if counter.Message == "" && counter.Offer == nil {
		return nil, &model.ValidationError{Field: "counter_offer", Message: "must carry a message or an offer"}
	}
	if counter.Offer != nil {
		if err := s.validateOffer(ctx, responderID, counter.Offer); err != nil {
			return nil, err
		}
	}
	out := *counter
	out.ProposedAt = now
	return &out, nil
}

// lostRace resolves the error for a failed compare-and-swap by re-reading
// the current status.
func (s *ExchangeService) lostRace(ctx context.Context, requestID string, action model.Action) error {
	fresh, err := s.exchangeRepo.GetByID(ctx, requestID)
	if err != nil || fresh == nil {
		return &model.AlreadyFinalizedError{Status: ""}
	}
	if fresh.Status.IsTerminal() {
		return &model.AlreadyFinalizedError{Status: fresh.Status}
	}
	return &model.InvalidTransitionError{From: fresh.Status, Action: action}
}

// applyLocal mirrors a persisted transition onto the in-memory record.
func (s *ExchangeService) applyLocal(req *model.ExchangeRequest, next model.Status, upd repository.StatusUpdate) {
	req.Status = next
	req.UpdatedAt = upd.OccurredAt
	if upd.ViewedAt != nil {
		req.ViewedAt = upd.ViewedAt
	}
	if upd.RejectionReason != "" {
		req.RejectionReason = upd.RejectionReason
	}
	if upd.WithdrawalReason != "" {
		req.WithdrawalReason = upd.WithdrawalReason
	}
	if upd.CounterOffer != nil {
		req.CounterOffer = upd.CounterOffer
	}
	req.History = append(req.History, model.StatusChange{
		Status:     next,
		ActorID:    upd.ActorID,
		Note:       upd.Note,
		OccurredAt: upd.OccurredAt,
	})
}

// expireIfDue lazily expires a request whose deadline has passed. The
// compare-and-swap keeps this safe against a concurrent transition; on a
// lost race the fresh record is returned instead.
func (s *ExchangeService) expireIfDue(ctx context.Context, req *model.ExchangeRequest) *model.ExchangeRequest {
	now := time.Now().UTC()
	if !req.ExpiryDue(now) {
		return req
	}

	upd := repository.StatusUpdate{Note: "deadline elapsed", OccurredAt: now}
	ok, err := s.exchangeRepo.UpdateStatus(ctx, req.ID, req.Status, model.StatusExpired, upd)
	if err != nil {
		log.Printf("[ExchangeService] Failed to expire request %s: %v", req.ID, err)
		return req
	}
	if !ok {
		if fresh, err := s.exchangeRepo.GetByID(ctx, req.ID); err == nil && fresh != nil {
			return fresh
		}
		return req
	}

	s.applyLocal(req, model.StatusExpired, upd)
	s.emit(ctx, req, notifier.EventExpired, "")
	return req
}

// emit sends a lifecycle event to the notification sink. Delivery failures
// are logged and never propagated.
func (s *ExchangeService) emit(ctx context.Context, req *model.ExchangeRequest, typ notifier.EventType, actorID string) {
	event := notifier.Event{
		RequestID:     req.ID,
		RequestNumber: req.RequestNumber,
		Type:          typ,
		ActorID:       actorID,
		InitiatorID:   req.InitiatorID,
		ResponderID:   req.ResponderID,
		TargetItemID:  req.TargetItemID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Printf("[ExchangeService] Failed to notify %s for request %s: %v", typ, req.ID, err)
	}
}

// eventForAction maps a transition action to its lifecycle event type.
func eventForAction(action model.Action) notifier.EventType {
	switch action {
	case model.ActionView:
		return notifier.EventViewed
	case model.ActionAccept:
		return notifier.EventAccepted
	case model.ActionReject:
		return notifier.EventRejected
	case model.ActionCounterOffer:
		return notifier.EventCounterOffer
	case model.ActionWithdraw:
		return notifier.EventWithdrawn
	}
	return notifier.EventType(action)
}
