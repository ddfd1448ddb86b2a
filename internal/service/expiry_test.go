package service

import (
	"context"
	"testing"
	"time"

	"labtrade-api/internal/model"
	"labtrade-api/internal/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpirySweeper_RunNow(t *testing.T) {
	repo := newFakeExchangeRepo()
	sink := &captureNotifier{}
	now := time.Now().UTC()

	stale := &model.ExchangeRequest{
		ID:            "req-stale",
		RequestNumber: "EXR-20260101-ABC123",
		InitiatorID:   alice,
		ResponderID:   bob,
		TargetItemID:  microscopeID,
		Status:        model.StatusPending,
		CreatedAt:     now.Add(-2 * time.Hour),
		ExpiresAt:     now.Add(-time.Hour),
	}
	fresh := &model.ExchangeRequest{
		ID:           "req-fresh",
		InitiatorID:  alice,
		ResponderID:  bob,
		TargetItemID: microscopeID,
		Status:       model.StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), stale))
	require.NoError(t, repo.Create(context.Background(), fresh))

	sweeper := NewExpirySweeper(repo, sink, ExpiryConfig{SweepInterval: time.Hour})
	sweeper.RunNow()

	got, err := repo.GetByID(context.Background(), "req-stale")
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, got.Status)

	untouched, err := repo.GetByID(context.Background(), "req-fresh")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, untouched.Status)

	events := sink.byType(notifier.EventExpired)
	require.Len(t, events, 1)
	assert.Equal(t, "req-stale", events[0].RequestID)
}

func TestExpirySweeper_StartStop(t *testing.T) {
	repo := newFakeExchangeRepo()
	sweeper := NewExpirySweeper(repo, &captureNotifier{}, ExpiryConfig{SweepInterval: 10 * time.Millisecond})

	sweeper.Start()
	sweeper.Start() // idempotent
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
	sweeper.Stop() // idempotent
}
