package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// RankingService выдает рейтинг контеста с проверкой доступа и пагинацией
type RankingService struct {
	access   contestAccess
	problems repository.ProblemRepository
	ranker   Ranker
	logger   *zap.Logger
	now      func() time.Time
}

// NewRankingService создает сервис рейтинга
func NewRankingService(
	contests repository.ContestRepository,
	users repository.UserRepository,
	problems repository.ProblemRepository,
	ranker Ranker,
	logger *zap.Logger,
) *RankingService {
	return &RankingService{
		access:   contestAccess{contests: contests, users: users},
		problems: problems,
		ranker:   ranker,
		logger:   logger.Named("ranking_service"),
		now:      time.Now,
	}
}

// RankingQuery - параметры запроса рейтинга
type RankingQuery struct {
	ContestID    uint
	CallerID     uint // 0 для анонимного запроса
	Page         int
	PageSize     int
	ForceRefresh bool
}

// RankingPage - страница рейтинга
type RankingPage struct {
	ContestID  uint                `json:"contest_id"`
	RuleType   entity.RuleType     `json:"rule_type"`
	Rows       []ranking.RankedRow `json:"results"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Source     ranking.Source      `json:"source"`
	ComputedAt time.Time           `json:"computed_at"`
	IsAdmin    bool                `json:"is_admin"`
}

// RankingExport - полный рейтинг и задачи контеста для выгрузки в файл
type RankingExport struct {
	Contest  *entity.Contest
	Problems []entity.Problem
	Ranking  *ranking.Ranking
}

// checkRankAccess применяет правила доступа к рейтингу для не-администраторов
func (s *RankingService) checkRankAccess(contest *entity.Contest, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	status := contest.Status(s.now())
	if status == entity.ContestStatusNotStarted {
		return apperrors.ErrForbidden
	}
	if contest.RuleType == entity.RuleTypeOI && !contest.RealTimeRank && status != entity.ContestStatusEnded {
		return apperrors.ErrForbidden
	}
	return nil
}

// GetRanking возвращает страницу итогового рейтинга.
// ForceRefresh учитывается только для администратора контеста.
func (s *RankingService) GetRanking(ctx context.Context, q RankingQuery) (*RankingPage, error) {
	caller, err := s.access.caller(ctx, q.CallerID)
	if err != nil {
		return nil, err
	}
	contest, isAdmin, err := s.access.contest(ctx, q.ContestID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.checkRankAccess(contest, isAdmin); err != nil {
		return nil, err
	}

	force := q.ForceRefresh && isAdmin
	if q.ForceRefresh && !isAdmin {
		s.logger.Debug("Ignoring force_refresh from non-admin",
			zap.Uint("contest_id", contest.ID), zap.Uint("user_id", q.CallerID))
	}

	result, source, err := s.ranker.Ranking(ctx, contest, force)
	if err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(q.Page, q.PageSize)
	total := len(result.Rows)
	start := pageOffset(page, pageSize)
	if start > total {
		start = total
	}
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}

	rows := make([]ranking.RankedRow, 0, end-start)
	for _, row := range result.Rows[start:end] {
		if !isAdmin {
			row.Annotation = row.Annotation.Public()
		}
		rows = append(rows, row)
	}

	return &RankingPage{
		ContestID:  contest.ID,
		RuleType:   contest.RuleType,
		Rows:       rows,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		Source:     source,
		ComputedAt: result.ComputedAt,
		IsAdmin:    isAdmin,
	}, nil
}

// ExportRanking возвращает полный рейтинг для выгрузки. Только для администратора контеста.
func (s *RankingService) ExportRanking(ctx context.Context, contestID, callerID uint) (*RankingExport, error) {
	caller, err := s.access.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	contest, isAdmin, err := s.access.contest(ctx, contestID, caller)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperrors.ErrForbidden
	}

	result, _, err := s.ranker.Ranking(ctx, contest, false)
	if err != nil {
		return nil, err
	}
	problems, err := s.problems.ListByContest(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	return &RankingExport{Contest: contest, Problems: problems, Ranking: result}, nil
}
