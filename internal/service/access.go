package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// Параметры пагинации
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// RankInvalidator сбрасывает закешированный рейтинг контеста
type RankInvalidator interface {
	Invalidate(ctx context.Context, contestID uint) error
}

// Ranker выдает итоговый рейтинг с учетом политики кеширования
type Ranker interface {
	RankInvalidator
	Ranking(ctx context.Context, contest *entity.Contest, force bool) (*ranking.Ranking, ranking.Source, error)
}

// contestAccess загружает вызывающего пользователя и контест с проверкой видимости
type contestAccess struct {
	contests repository.ContestRepository
	users    repository.UserRepository
}

// caller возвращает пользователя по ID; 0 означает анонимный запрос
func (a contestAccess) caller(ctx context.Context, userID uint) (*entity.User, error) {
	if userID == 0 {
		return nil, nil
	}
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// contest возвращает контест и признак того, что caller его администрирует.
// Скрытый контест для остальных выглядит несуществующим.
func (a contestAccess) contest(ctx context.Context, contestID uint, caller *entity.User) (*entity.Contest, bool, error) {
	contest, err := a.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, false, err
	}
	isAdmin := contest.IsContestAdmin(caller)
	if !contest.Visible && !isAdmin {
		return nil, false, apperrors.ErrNotFound
	}
	return contest, isAdmin, nil
}

// normalizePage приводит параметры страницы к допустимым значениям
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// pageOffset возвращает смещение первой строки страницы.
// При переполнении возвращает math.MaxInt: такая страница заведомо пуста.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

func invalidateRank(ctx context.Context, inv RankInvalidator, logger *zap.Logger, contestID uint) {
	if err := inv.Invalidate(ctx, contestID); err != nil {
		logger.Warn("Failed to invalidate rank cache",
			zap.Uint("contest_id", contestID), zap.Error(err))
	}
}
