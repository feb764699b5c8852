// Package app собирает зависимости сервиса: подключения, репозитории, движок рейтинга и сервисы.
// Используется HTTP сервером и утилитой пересчета.
package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yourusername/contest-rank-api/internal/config"
	pgRepo "github.com/yourusername/contest-rank-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/contest-rank-api/internal/repository/redis"
	"github.com/yourusername/contest-rank-api/internal/service"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
	"github.com/yourusername/contest-rank-api/pkg/database"
)

// Deps - собранные зависимости
type Deps struct {
	DB    *gorm.DB
	Redis redis.UniversalClient

	Ranker        *ranking.CachingRanker
	Rankings      *service.RankingService
	Recalculation *service.RecalculationService
	Violations    *service.ViolationService
	Reviews       *service.ReviewService
}

// New подключается к PostgreSQL и Redis и создает сервисы.
// migrate применяет миграции перед стартом.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool) (*Deps, error) {
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to Redis", zap.String("mode", cfg.Redis.Mode))

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		return nil, err
	}

	users := pgRepo.NewUserRepo(db)
	contests := pgRepo.NewContestRepo(db)
	problems := pgRepo.NewProblemRepo(db)
	submissions := pgRepo.NewSubmissionRepo(db)
	violations := pgRepo.NewViolationRepo(db)
	reviews := pgRepo.NewReviewRepo(db)
	ranks := pgRepo.NewRankRepo(db)

	engine := ranking.NewEngine(ranking.NewAggregator(ranks), violations, reviews, log)
	ranker := ranking.NewCachingRanker(engine, ranking.NewStoreRankCache(cacheRepo, cfg.Ranking.CacheTTL), violations, log)

	return &Deps{
		DB:            db,
		Redis:         redisClient,
		Ranker:        ranker,
		Rankings:      service.NewRankingService(contests, users, problems, ranker, log),
		Recalculation: service.NewRecalculationService(contests, users, submissions, violations, ranks, ranker, cfg.Ranking.RecalcWorkers, log),
		Violations:    service.NewViolationService(contests, users, problems, violations, submissions, ranker, cfg.Ranking.DuplicateWindow, log),
		Reviews:       service.NewReviewService(contests, users, reviews, ranker, log),
	}, nil
}

// Close закрывает подключения
func (d *Deps) Close() {
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if sqlDB, err := database.GetSQLDB(d.DB); err == nil {
		_ = sqlDB.Close()
	}
}
