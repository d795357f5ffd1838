package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gracechapel-dev/church-site-api/internal/models"
)

const featuredCacheKey = "events:featured"

type featuredEventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ClearFeatured(ctx context.Context, ids []string) error
}

type featuredCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FeaturedResult is the public payload for the featured event endpoint.
type FeaturedResult struct {
	FeaturedEvent *models.Event `json:"featured_event"`
}

// FeaturedService decides which single event the homepage highlights.
type FeaturedService struct {
	repo     featuredEventRepository
	cache    featuredCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewFeaturedService constructs the service. Cache may be nil.
func NewFeaturedService(repo featuredEventRepository, cache featuredCache, cacheTTL time.Duration, logger *zap.Logger) *FeaturedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &FeaturedService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// SelectFeatured returns the nearest upcoming published+featured event, or,
// when none qualifies, the nearest upcoming published event. Events starting
// at exactly the current minute are excluded: the same-day comparison is
// strict on both the featured and fallback paths.
func SelectFeatured(now time.Time, events []models.Event) *models.Event {
	today := now.Format(models.DateLayout)
	clock := now.Format(models.TimeLayout)

	upcoming := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.IsPublished && e.StartsAfter(today, clock) {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].Date != upcoming[j].Date {
			return upcoming[i].Date < upcoming[j].Date
		}
		return upcoming[i].Time < upcoming[j].Time
	})

	for i := range upcoming {
		if upcoming[i].IsFeatured {
			return &upcoming[i]
		}
	}
	if len(upcoming) > 0 {
		return &upcoming[0]
	}
	return nil
}

// ElapsedFeatured returns the IDs of events still flagged featured whose
// start has strictly passed.
func ElapsedFeatured(now time.Time, events []models.Event) []string {
	today := now.Format(models.DateLayout)
	clock := now.Format(models.TimeLayout)

	var ids []string
	for _, e := range events {
		if e.IsFeatured && e.StartsBefore(today, clock) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// CleanupElapsed unsets the featured flag on events that have already
// started. Running it again once clean is a no-op.
func (s *FeaturedService) CleanupElapsed(ctx context.Context, now time.Time) (int, error) {
	featured := true
	events, _, err := s.repo.List(ctx, models.EventFilter{IsFeatured: &featured})
	if err != nil {
		return 0, err
	}
	ids := ElapsedFeatured(now, events)
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.ClearFeatured(ctx, ids); err != nil {
		return 0, err
	}
	s.logger.Info("cleared elapsed featured events", zap.Int("count", len(ids)))
	return len(ids), nil
}

// Featured resolves the event to highlight right now. The elapsed-flag
// cleanup runs on a detached goroutine so the response never waits on the
// write; a read racing an in-flight cleanup is accepted. Store failures
// degrade to an empty result so public pages stay up.
func (s *FeaturedService) Featured(ctx context.Context, now time.Time) FeaturedResult {
	if s.cache != nil && s.cache.Enabled() {
		var cached FeaturedResult
		if hit, err := s.cache.Get(ctx, featuredCacheKey, &cached); err == nil && hit {
			return cached
		}
	}

	published := true
	events, _, err := s.repo.List(ctx, models.EventFilter{IsPublished: &published})
	if err != nil {
		s.logger.Warn("failed to list events for featured selection", zap.Error(err))
		return FeaturedResult{}
	}

	go func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.CleanupElapsed(cleanupCtx, now); err != nil {
			s.logger.Warn("featured cleanup failed", zap.Error(err))
		}
	}()

	result := FeaturedResult{FeaturedEvent: SelectFeatured(now, events)}

	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Set(ctx, featuredCacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache featured event", zap.Error(err))
		}
	}
	return result
}
