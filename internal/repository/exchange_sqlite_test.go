package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"labtrade-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteExchangeRepository {
	t.Helper()
	repo, err := NewSQLiteExchangeRepository(filepath.Join(t.TempDir(), "exchange.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedRequest(id, requestNumber string, status model.Status, expiresAt time.Time) *model.ExchangeRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.ExchangeRequest{
		ID:                id,
		RequestNumber:     requestNumber,
		InitiatorID:       "user-alice",
		ResponderID:       "user-bob",
		TargetItemID:      "item-microscope",
		RequestedQuantity: 2,
		Offer: model.Offer{
			Kind: model.OfferKindCustom,
			Custom: &model.CustomOffer{
				Name:           "Peristaltic pump",
				Description:    "Bench pump, serviced last quarter",
				Quantity:       1,
				EstimatedValue: 450,
				Specifications: []string{"4 channels"},
			},
		},
		Message:   "Interested in a swap?",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
}

func TestSQLiteExchangeRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	req := seedRequest("req-1", "EXR-20260831-AAAA01", model.StatusPending, time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, req.RequestNumber, got.RequestNumber)
	assert.Equal(t, req.InitiatorID, got.InitiatorID)
	assert.Equal(t, req.ResponderID, got.ResponderID)
	assert.Equal(t, req.RequestedQuantity, got.RequestedQuantity)
	assert.Equal(t, req.Offer, got.Offer)
	assert.Equal(t, req.Message, got.Message)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.CounterOffer)
	assert.Nil(t, got.ViewedAt)

	require.Len(t, got.History, 1)
	assert.Equal(t, model.StatusPending, got.History[0].Status)
	assert.Equal(t, "user-alice", got.History[0].ActorID)

	missing, err := repo.GetByID(ctx, "req-none")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteExchangeRepository_UpdateStatusCAS(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	req := seedRequest("req-1", "EXR-20260831-AAAA02", model.StatusPending, time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, req))

	now := time.Now().UTC().Truncate(time.Second)
	ok, err := repo.UpdateStatus(ctx, "req-1", model.StatusPending, model.StatusRejected, StatusUpdate{
		ActorID:         "user-bob",
		Note:            "not interested",
		RejectionReason: "not interested",
		OccurredAt:      now,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// The same guard must now fail: the row is no longer pending.
	ok, err = repo.UpdateStatus(ctx, "req-1", model.StatusPending, model.StatusAccepted, StatusUpdate{
		ActorID:    "user-bob",
		OccurredAt: now,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
	assert.Equal(t, "not interested", got.RejectionReason)

	// History holds creation plus the one successful transition.
	require.Len(t, got.History, 2)
	assert.Equal(t, model.StatusRejected, got.History[1].Status)
	assert.Equal(t, "not interested", got.History[1].Note)
}

func TestSQLiteExchangeRepository_UpdateStatusAttachments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	req := seedRequest("req-1", "EXR-20260831-AAAA03", model.StatusPending, time.Now().UTC().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, req))

	now := time.Now().UTC().Truncate(time.Second)
	viewedAt := now
	ok, err := repo.UpdateStatus(ctx, "req-1", model.StatusPending, model.StatusViewed, StatusUpdate{
		ActorID:    "user-bob",
		ViewedAt:   &viewedAt,
		OccurredAt: now,
	})
	require.NoError(t, err)
	require.True(t, ok)

	counter := &model.CounterOffer{
		Message:    "Two pumps or no deal.",
		ProposedAt: now,
	}
	ok, err = repo.UpdateStatus(ctx, "req-1", model.StatusViewed, model.StatusCounterOffer, StatusUpdate{
		ActorID:      "user-bob",
		Note:         counter.Message,
		CounterOffer: counter,
		OccurredAt:   now,
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounterOffer, got.Status)
	require.NotNil(t, got.ViewedAt)
	require.NotNil(t, got.CounterOffer)
	assert.Equal(t, counter.Message, got.CounterOffer.Message)
	require.Len(t, got.History, 3)
}

func TestSQLiteExchangeRepository_ListByViewer(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(time.Hour)
	first := seedRequest("req-1", "EXR-20260831-AAAA04", model.StatusPending, future)
	second := seedRequest("req-2", "EXR-20260831-AAAA05", model.StatusPending, future)
	second.InitiatorID = "user-carol"
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	second.UpdatedAt = second.CreatedAt
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	sent, total, err := repo.ListByViewer(ctx, "user-alice", ExchangeFilter{Role: RoleFilterSent})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sent, 1)
	assert.Equal(t, "req-1", sent[0].ID)

	// Bob received both; newest first.
	received, total, err := repo.ListByViewer(ctx, "user-bob", ExchangeFilter{Role: RoleFilterReceived})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, received, 2)
	assert.Equal(t, "req-2", received[0].ID)
	assert.Equal(t, "req-1", received[1].ID)

	all, total, err := repo.ListByViewer(ctx, "user-carol", ExchangeFilter{Role: RoleFilterAll})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, all, 1)

	paged, total, err := repo.ListByViewer(ctx, "user-bob", ExchangeFilter{Role: RoleFilterReceived, Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, paged, 1)
	assert.Equal(t, "req-1", paged[0].ID)

	none, total, err := repo.ListByViewer(ctx, "user-bob", ExchangeFilter{Role: RoleFilterReceived, Status: model.StatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, none)
}

func TestSQLiteExchangeRepository_ExpireStale(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	stale := seedRequest("req-stale", "EXR-20260831-AAAA06", model.StatusPending, now.Add(-time.Hour))
	fresh := seedRequest("req-fresh", "EXR-20260831-AAAA07", model.StatusPending, now.Add(time.Hour))
	terminal := seedRequest("req-done", "EXR-20260831-AAAA08", model.StatusRejected, now.Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, terminal))

	expired, err := repo.ExpireStale(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "req-stale", expired[0].ID)
	assert.Equal(t, model.StatusExpired, expired[0].Status)

	got, err := repo.GetByID(ctx, "req-stale")
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)
	require.Len(t, got.History, 2)
	assert.Equal(t, "deadline elapsed", got.History[1].Note)

	// Untouched rows keep their status.
	got, err = repo.GetByID(ctx, "req-fresh")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	got, err = repo.GetByID(ctx, "req-done")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	// A second sweep finds nothing.
	expired, err = repo.ExpireStale(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestSQLiteExchangeRepository_GetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Create(ctx, seedRequest("req-1", "EXR-20260831-AAAA09", model.StatusPending, future)))
	require.NoError(t, repo.Create(ctx, seedRequest("req-2", "EXR-20260831-AAAA10", model.StatusAccepted, future)))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats["total_requests"])

	byStatus, ok := stats["by_status"].(map[string]int64)
	require.True(t, ok)
	assert.Equal(t, int64(1), byStatus["pending"])
	assert.Equal(t, int64(1), byStatus["accepted"])
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, DefaultPageLimit},
		{"negative", -3, -5, 1, DefaultPageLimit},
		{"in bounds", 2, 50, 2, 50},
		{"at the cap", 1, MaxPageLimit, 1, MaxPageLimit},
		{"over the cap", 1, 500, 1, DefaultPageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := NormalizePage(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}
