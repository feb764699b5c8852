package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// ErrCacheMiss - в кеше нет рейтинга контеста. Не ошибка для вызывающего: ведет к пересчету.
var ErrCacheMiss = errors.New("rank cache miss")

// RankCache - мемоизация результата движка по контесту
type RankCache interface {
	Get(ctx context.Context, contestID uint) (*Ranking, error)
	Set(ctx context.Context, ranking *Ranking) error
	Invalidate(ctx context.Context, contestID uint) error
}

// CacheKey возвращает ключ кеша рейтинга контеста
func CacheKey(contestID uint) string {
	return fmt.Sprintf("contest_rank_cache:%d", contestID)
}

// StoreRankCache хранит рейтинг целиком в JSON под одним ключом на контест
type StoreRankCache struct {
	store repository.CacheRepository
	ttl   time.Duration
}

// NewStoreRankCache создает кеш рейтинга поверх CacheRepository
func NewStoreRankCache(store repository.CacheRepository, ttl time.Duration) *StoreRankCache {
	if ttl <= 0 {
		ttl = DefaultConfig().CacheTTL
	}
	return &StoreRankCache{store: store, ttl: ttl}
}

// Get возвращает закешированный рейтинг или ErrCacheMiss
func (c *StoreRankCache) Get(ctx context.Context, contestID uint) (*Ranking, error) {
	var ranking Ranking
	if err := c.store.GetJSON(ctx, CacheKey(contestID), &ranking); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return &ranking, nil
}

// Set сохраняет рейтинг на время TTL
func (c *StoreRankCache) Set(ctx context.Context, ranking *Ranking) error {
	return c.store.SetJSON(ctx, CacheKey(ranking.ContestID), ranking, c.ttl)
}

// Invalidate немедленно удаляет запись контеста
func (c *StoreRankCache) Invalidate(ctx context.Context, contestID uint) error {
	return c.store.Delete(ctx, CacheKey(contestID))
}

// CachingRanker применяет политику кеширования к движку:
//   - принудительный пересчет игнорирует кеш;
//   - при наличии нарушений в контесте кеш не читается и не пишется;
//   - иначе кеш читается, а при промахе заполняется, если при вычислении нарушений не было.
//
// Одновременные промахи по одному контесту могут перезаписать запись друг за другом,
// все они считают по одним и тем же фактам.
type CachingRanker struct {
	engine     *Engine
	cache      RankCache
	violations ViolationSource
	logger     *zap.Logger
}

// NewCachingRanker создает движок с политикой кеширования
func NewCachingRanker(engine *Engine, cache RankCache, violations ViolationSource, logger *zap.Logger) *CachingRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingRanker{
		engine:     engine,
		cache:      cache,
		violations: violations,
		logger:     logger.Named("rank_cache"),
	}
}

// Ranking возвращает рейтинг контеста и источник, из которого он получен.
// force должен выставляться только для администраторов контеста.
func (r *CachingRanker) Ranking(ctx context.Context, contest *entity.Contest, force bool) (*Ranking, Source, error) {
	if force {
		ranking, err := r.engine.Compute(ctx, contest)
		return ranking, SourceForced, err
	}

	hasViolations, err := r.violations.ExistsForContest(ctx, contest.ID)
	if err != nil {
		return nil, "", fmt.Errorf("check violations for contest %d: %w", contest.ID, err)
	}
	if hasViolations {
		ranking, err := r.engine.Compute(ctx, contest)
		return ranking, SourceBypass, err
	}

	cached, err := r.cache.Get(ctx, contest.ID)
	switch {
	case err == nil:
		return cached, SourceCache, nil
	case errors.Is(err, ErrCacheMiss):
	default:
		r.logger.Warn("Rank cache read failed, recomputing",
			zap.Uint("contest_id", contest.ID), zap.Error(err))
	}

	ranking, err := r.engine.Compute(ctx, contest)
	if err != nil {
		return nil, "", err
	}
	// Нарушение могло появиться между проверкой и вычислением
	if ranking.ViolationFree {
		if err := r.cache.Set(ctx, ranking); err != nil {
			r.logger.Warn("Rank cache write failed",
				zap.Uint("contest_id", contest.ID), zap.Error(err))
		}
	}
	return ranking, SourceFresh, nil
}

// Invalidate удаляет закешированный рейтинг контеста
func (r *CachingRanker) Invalidate(ctx context.Context, contestID uint) error {
	return r.cache.Invalidate(ctx, contestID)
}
