package repository

import (
	"context"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// ReviewRepository определяет методы для работы с отзывами о контесте
type ReviewRepository interface {
	GetByContestUser(ctx context.Context, contestID, userID uint) (*entity.Review, error)
	// Upsert создает или обновляет единственный отзыв пары (контест, пользователь).
	// created=true, если запись была создана.
	Upsert(ctx context.Context, review *entity.Review) (created bool, err error)
	ListByContest(ctx context.Context, contestID uint, limit, offset int) ([]entity.Review, int64, error)
	AllByContest(ctx context.Context, contestID uint) ([]entity.Review, error)
	UserIDsWithReview(ctx context.Context, contestID uint) ([]uint, error)
}
