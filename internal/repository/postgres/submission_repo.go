package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// SubmissionRepo реализует repository.SubmissionRepository
type SubmissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo создает новый репозиторий посылок
func NewSubmissionRepo(db *gorm.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// ListByContest возвращает все посылки контеста в порядке создания
func (r *SubmissionRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Submission, error) {
	var submissions []entity.Submission
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("created_at, id").
		Find(&submissions).Error
	return submissions, err
}

// HasAccepted проверяет, есть ли у пользователя принятая посылка по задаче
func (r *SubmissionRepo) HasAccepted(ctx context.Context, contestID, problemID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Submission{}).
		Where("contest_id = ? AND problem_id = ? AND user_id = ? AND result = ?",
			contestID, problemID, userID, entity.JudgeAccepted).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}
