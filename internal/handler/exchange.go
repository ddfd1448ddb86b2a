package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"labtrade-api/internal/middleware"
	"labtrade-api/internal/model"
	"labtrade-api/internal/repository"
	"labtrade-api/internal/service"
	"labtrade-api/pkg/apierror"
	"labtrade-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ExchangeHandler handles exchange-request HTTP requests.
type ExchangeHandler struct {
	exchangeService *service.ExchangeService
}

// NewExchangeHandler creates a new exchange handler.
func NewExchangeHandler(exchangeService *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeService: exchangeService,
	}
}

// RespondRequest represents the request body for responding to an exchange.
type RespondRequest struct {
	Action           string              `json:"action"`
	RejectionReason  string              `json:"rejection_reason,omitempty"`
	WithdrawalReason string              `json:"withdrawal_reason,omitempty"`
	CounterOffer     *model.CounterOffer `json:"counter_offer,omitempty"`
}

// Create handles POST /api/v1/exchanges
func (h *ExchangeHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		response.Error(w, apierror.Unauthorized("authentication required"))
		return
	}

	var in service.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if in.TargetItemID == "" {
		response.Error(w, apierror.BadRequest("target_item_id is required"))
		return
	}

	req, err := h.exchangeService.Create(r.Context(), viewerID, in)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}

	response.Created(w, req)
}

// List handles GET /api/v1/exchanges
func (h *ExchangeHandler) List(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		response.Error(w, apierror.Unauthorized("authentication required"))
		return
	}

	filter := repository.ExchangeFilter{
		Role: r.URL.Query().Get("role"),
	}
	switch filter.Role {
	case "", repository.RoleFilterSent, repository.RoleFilterReceived, repository.RoleFilterAll:
	default:
		response.Error(w, apierror.BadRequest("role must be sent, received or all"))
		return
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := model.Status(s)
		if !model.IsValidStatus(status) {
			response.Error(w, apierror.BadRequest("unknown status: "+s))
			return
		}
		filter.Status = status
	}

	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	reqs, total, err := h.exchangeService.List(r.Context(), viewerID, filter)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}

	page, limit := repository.NormalizePage(filter.Page, filter.Limit)
	response.JSONWithMeta(w, http.StatusOK, reqs, page, limit, total)
}

// Get handles GET /api/v1/exchanges/{id}
func (h *ExchangeHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		response.Error(w, apierror.Unauthorized("authentication required"))
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	req, err := h.exchangeService.Get(r.Context(), viewerID, requestID)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}

	response.OK(w, req)
}

// Respond handles POST /api/v1/exchanges/{id}/respond
func (h *ExchangeHandler) Respond(w http.ResponseWriter, r *http.Request) {
	viewerID := middleware.GetUserID(r.Context())
	if viewerID == "" {
		response.Error(w, apierror.Unauthorized("authentication required"))
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	action := model.Action(req.Action)
	if !model.IsValidAction(action) {
		response.Error(w, apierror.BadRequest("action must be view, accept, reject, counter_offer or withdraw"))
		return
	}

	in := service.RespondInput{
		RejectionReason:  req.RejectionReason,
		WithdrawalReason: req.WithdrawalReason,
		CounterOffer:     req.CounterOffer,
	}

	updated, err := h.exchangeService.Respond(r.Context(), viewerID, requestID, action, in)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}

	response.OK(w, updated)
}
