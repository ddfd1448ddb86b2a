package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"labtrade-api/internal/ledger"
	"labtrade-api/internal/model"
	"labtrade-api/internal/repository"
	"labtrade-api/internal/service"
	"labtrade-api/pkg/apierror"
	"labtrade-api/pkg/response"
	"labtrade-api/pkg/uid"

	"github.com/go-chi/chi/v5"
)

// AdminHandler handles admin-related HTTP requests. All routes require the
// X-Admin-Key header to match the configured admin key.
type AdminHandler struct {
	exchangeRepo    repository.ExchangeRepository
	itemRepo        repository.ItemRepository
	exchangeService *service.ExchangeService
	stockLedger     ledger.Ledger
	adminKey        string
	dbType          string
	startTime       time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	exchangeRepo repository.ExchangeRepository,
	itemRepo repository.ItemRepository,
	exchangeService *service.ExchangeService,
	stockLedger ledger.Ledger,
	adminKey string,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		exchangeRepo:    exchangeRepo,
		itemRepo:        itemRepo,
		exchangeService: exchangeService,
		stockLedger:     stockLedger,
		adminKey:        adminKey,
		dbType:          dbType,
		startTime:       time.Now(),
	}
}

// RequireAdminKey rejects requests whose X-Admin-Key header does not match
// the configured key.
func (h *AdminHandler) RequireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminKey == "" {
			response.Error(w, apierror.ServiceUnavailable("admin endpoints are not enabled"))
			return
		}
		if r.Header.Get("X-Admin-Key") != h.adminKey {
			response.Error(w, apierror.Unauthorized("invalid admin key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateItemRequest represents the request body for registering an item.
type CreateItemRequest struct {
	OwnerID       string `json:"owner_id"`
	Name          string `json:"name"`
	Brand         string `json:"brand,omitempty"`
	Model         string `json:"model,omitempty"`
	Condition     string `json:"condition,omitempty"`
	AllowExchange bool   `json:"allow_exchange"`
	Quantity      int    `json:"quantity"`
}

// CreateItem handles POST /api/v1/admin/items. The item is registered in the
// catalog and its quantity is preloaded into the stock ledger.
func (h *AdminHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.OwnerID == "" {
		response.Error(w, apierror.BadRequest("owner_id is required"))
		return
	}
	if req.Name == "" {
		response.Error(w, apierror.BadRequest("name is required"))
		return
	}
	if req.Quantity < 1 {
		response.Error(w, apierror.BadRequest("quantity must be >= 1"))
		return
	}

	item := &model.Item{
		ID:            uid.New(),
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		Brand:         req.Brand,
		Model:         req.Model,
		Condition:     req.Condition,
		Status:        model.ItemStatusActive,
		AllowExchange: req.AllowExchange,
		Quantity:      req.Quantity,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.itemRepo.CreateItem(r.Context(), item); err != nil {
		response.Error(w, apierror.InternalError("failed to create item"))
		return
	}

	if err := h.stockLedger.Preload(r.Context(), item.ID, item.Quantity); err != nil {
		response.Error(w, apierror.InternalError("item created but ledger preload failed"))
		return
	}

	response.Created(w, item)
}

// RestockExchange handles POST /api/v1/admin/exchanges/{id}/restock. When a
// handover falls through after acceptance, the committed quantity is returned
// to the stock ledger. Safe to retry; only the first call moves stock.
func (h *AdminHandler) RestockExchange(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	released, err := h.exchangeService.ReleaseCommitted(r.Context(), requestID)
	if err != nil {
		response.Error(w, mapDomainError(err))
		return
	}

	response.OK(w, map[string]interface{}{
		"request_id": requestID,
		"released":   released,
	})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Exchange store stats
	if h.exchangeRepo != nil {
		repoStats, err := h.exchangeRepo.GetStats(ctx)
		if err == nil {
			repoStats["status"] = "connected"
			stats["exchanges"] = repoStats
		} else {
			stats["exchanges"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["exchanges"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
