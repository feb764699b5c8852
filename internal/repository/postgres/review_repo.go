package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// ReviewRepo реализует repository.ReviewRepository
type ReviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo создает новый репозиторий отзывов
func NewReviewRepo(db *gorm.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// GetByContestUser возвращает отзыв пользователя о контесте
func (r *ReviewRepo) GetByContestUser(ctx context.Context, contestID, userID uint) (*entity.Review, error) {
	var review entity.Review
	err := r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

// Upsert создает отзыв или перезаписывает существующий отзыв пары (контест, пользователь).
// Гонка двух первых отзывов проявляется как unique violation и возвращается как ErrConflict.
func (r *ReviewRepo) Upsert(ctx context.Context, review *entity.Review) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.Review
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("contest_id = ? AND user_id = ?", review.ContestID, review.UserID).
			First(&existing).Error
		switch {
		case err == nil:
			review.ID = existing.ID
			review.CreatedAt = existing.CreatedAt
			return tx.Omit(clause.Associations).Save(review).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			return tx.Omit(clause.Associations).Create(review).Error
		default:
			return err
		}
	})
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("%w: review for contest %d user %d", apperrors.ErrConflict, review.ContestID, review.UserID)
		}
		return false, err
	}
	return created, nil
}

// ListByContest возвращает страницу отзывов контеста, новые первыми, и общее число
func (r *ReviewRepo) ListByContest(ctx context.Context, contestID uint, limit, offset int) ([]entity.Review, int64, error) {
	var reviews []entity.Review
	var total int64

	err := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("contest_id = ?", contestID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	err = r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// AllByContest возвращает все отзывы контеста, для статистики
func (r *ReviewRepo) AllByContest(ctx context.Context, contestID uint) ([]entity.Review, error) {
	var reviews []entity.Review
	err := r.db.WithContext(ctx).Where("contest_id = ?", contestID).Find(&reviews).Error
	return reviews, err
}

// UserIDsWithReview возвращает ID пользователей, оставивших отзыв
func (r *ReviewRepo) UserIDsWithReview(ctx context.Context, contestID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("contest_id = ?", contestID).
		Pluck("user_id", &ids).Error
	return ids, err
}
