package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"labtrade-api/internal/ledger"
	"labtrade-api/internal/middleware"
	"labtrade-api/internal/model"
	"labtrade-api/internal/repository"
	"labtrade-api/internal/service"
	"labtrade-api/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newListFixture wires a handler over a real SQLite store with two of bob's
// requests targeting alice's centrifuge.
func newListFixture(t *testing.T) *ExchangeHandler {
	t.Helper()
	ctx := context.Background()

	exchangeRepo, err := repository.NewSQLiteExchangeRepository(filepath.Join(t.TempDir(), "exchange.db"))
	require.NoError(t, err)
	t.Cleanup(func() { exchangeRepo.Close() })

	itemRepo, err := repository.NewSQLiteItemRepository(exchangeRepo.DB())
	require.NoError(t, err)

	require.NoError(t, itemRepo.CreateItem(ctx, &model.Item{
		ID:            "item-centrifuge",
		OwnerID:       "user-alice",
		Name:          "Benchtop centrifuge",
		Status:        model.ItemStatusActive,
		AllowExchange: true,
		Quantity:      4,
	}))

	stock := ledger.NewMemoryLedger()
	require.NoError(t, stock.Preload(ctx, "item-centrifuge", 4))

	svc := service.NewExchangeService(exchangeRepo, itemRepo, stock, nil, time.Hour)
	require.NotNil(t, svc)

	for i := 0; i < 2; i++ {
		_, err := svc.Create(ctx, "user-bob", service.CreateInput{
			TargetItemID:      "item-centrifuge",
			RequestedQuantity: 1,
			Offer: model.Offer{
				Kind: model.OfferKindCustom,
				Custom: &model.CustomOffer{
					Name:        "Vortex mixer",
					Description: "Fixed-speed mixer, barely used",
					Quantity:    1,
				},
			},
		})
		require.NoError(t, err)
	}

	return NewExchangeHandler(svc)
}

func listAs(t *testing.T, h *ExchangeHandler, userID, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchanges"+query, nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	rec := httptest.NewRecorder()
	h.List(rec, req)
	return rec
}

type listEnvelope struct {
	Success bool              `json:"success"`
	Data    []json.RawMessage `json:"data"`
	Meta    *response.Meta    `json:"meta"`
}

func TestList_MetaMatchesServedPage(t *testing.T) {
	h := newListFixture(t)

	// An out-of-bounds limit falls back to the default page size, and the
	// meta reports the size actually served rather than echoing the query.
	rec := listAs(t, h, "user-bob", "?limit=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, 1, envelope.Meta.Page)
	assert.Equal(t, repository.DefaultPageLimit, envelope.Meta.Limit)
	assert.Equal(t, int64(2), envelope.Meta.Total)
	assert.Len(t, envelope.Data, 2)

	// An in-bounds limit is honored as given.
	rec = listAs(t, h, "user-bob", "?limit=1&page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	envelope = listEnvelope{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Meta)
	assert.Equal(t, 2, envelope.Meta.Page)
	assert.Equal(t, 1, envelope.Meta.Limit)
	assert.Equal(t, int64(2), envelope.Meta.Total)
	assert.Len(t, envelope.Data, 1)
}
