package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
)

type fakeFeaturedRepo struct {
	mu      sync.Mutex
	events  []models.Event
	listErr error
	cleared [][]string
}

func (f *fakeFeaturedRepo) List(_ context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []models.Event
	for _, e := range f.events {
		if filter.IsPublished != nil && e.IsPublished != *filter.IsPublished {
			continue
		}
		if filter.IsFeatured != nil && e.IsFeatured != *filter.IsFeatured {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeFeaturedRepo) ClearFeatured(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, ids)
	for i := range f.events {
		for _, id := range ids {
			if f.events[i].ID == id {
				f.events[i].IsFeatured = false
			}
		}
	}
	return nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return parsed
}

func TestSelectFeaturedPrefersNearestFeatured(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	events := []models.Event{
		{ID: "far", Title: "Far Featured", Date: "2025-01-10", Time: "10:00", IsPublished: true, IsFeatured: true},
		{ID: "near", Title: "Near Plain", Date: "2025-01-08", Time: "10:00", IsPublished: true},
	}

	selected := SelectFeatured(now, events)
	require.NotNil(t, selected)
	assert.Equal(t, "far", selected.ID)
}

func TestSelectFeaturedFallsBackToNextUpcoming(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	events := []models.Event{
		{ID: "late", Date: "2025-02-01", Time: "09:00", IsPublished: true},
		{ID: "next", Date: "2025-01-20", Time: "09:00", IsPublished: true},
		{ID: "past-featured", Date: "2025-01-01", Time: "09:00", IsPublished: true, IsFeatured: true},
	}

	selected := SelectFeatured(now, events)
	require.NotNil(t, selected)
	assert.Equal(t, "next", selected.ID)
}

func TestSelectFeaturedExcludesSameMinuteStart(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	events := []models.Event{
		{ID: "exact", Date: "2025-01-09", Time: "12:00", IsPublished: true, IsFeatured: true},
		{ID: "later", Date: "2025-01-09", Time: "12:01", IsPublished: true},
	}

	selected := SelectFeatured(now, events)
	require.NotNil(t, selected)
	assert.Equal(t, "later", selected.ID)
}

func TestSelectFeaturedIgnoresDrafts(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	events := []models.Event{
		{ID: "draft", Date: "2025-01-10", Time: "10:00", IsFeatured: true},
	}

	assert.Nil(t, SelectFeatured(now, events))
}

func TestSelectFeaturedEmpty(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	assert.Nil(t, SelectFeatured(now, nil))
}

func TestCleanupElapsedClearsOnlyPastFeatured(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	repo := &fakeFeaturedRepo{events: []models.Event{
		{ID: "past", Date: "2025-01-08", Time: "10:00", IsPublished: true, IsFeatured: true},
		{ID: "same-minute", Date: "2025-01-09", Time: "12:00", IsPublished: true, IsFeatured: true},
		{ID: "future", Date: "2025-01-10", Time: "10:00", IsPublished: true, IsFeatured: true},
	}}
	svc := NewFeaturedService(repo, nil, time.Minute, zap.NewNop())

	cleared, err := svc.CleanupElapsed(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)
	require.Len(t, repo.cleared, 1)
	assert.Equal(t, []string{"past"}, repo.cleared[0])
}

func TestCleanupElapsedIdempotent(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	repo := &fakeFeaturedRepo{events: []models.Event{
		{ID: "past", Date: "2025-01-08", Time: "10:00", IsPublished: true, IsFeatured: true},
	}}
	svc := NewFeaturedService(repo, nil, time.Minute, zap.NewNop())

	cleared, err := svc.CleanupElapsed(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	cleared, err = svc.CleanupElapsed(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
	assert.Len(t, repo.cleared, 1)
}

func TestFeaturedReturnsResult(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	repo := &fakeFeaturedRepo{events: []models.Event{
		{ID: "next", Date: "2025-01-10", Time: "10:00", IsPublished: true, IsFeatured: true},
	}}
	svc := NewFeaturedService(repo, nil, time.Minute, zap.NewNop())

	result := svc.Featured(context.Background(), now)
	require.NotNil(t, result.FeaturedEvent)
	assert.Equal(t, "next", result.FeaturedEvent.ID)
}

func TestFeaturedDegradesOnStoreFailure(t *testing.T) {
	now := mustTime(t, "2025-01-09 12:00")
	repo := &fakeFeaturedRepo{listErr: errors.New("connection refused")}
	svc := NewFeaturedService(repo, nil, time.Minute, zap.NewNop())

	result := svc.Featured(context.Background(), now)
	assert.Nil(t, result.FeaturedEvent)
}
