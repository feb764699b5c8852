package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// ViolationRepo реализует repository.ViolationRepository
type ViolationRepo struct {
	db *gorm.DB
}

// NewViolationRepo создает новый репозиторий нарушений
func NewViolationRepo(db *gorm.DB) *ViolationRepo {
	return &ViolationRepo{db: db}
}

// violationLockKey - ключ advisory-блокировки, сериализующей отчеты одного пользователя в контесте
func violationLockKey(contestID, userID uint) string {
	return fmt.Sprintf("violation:%d:%d", contestID, userID)
}

// CreateUnlessDuplicate сохраняет нарушение, если за окно since не было такого же.
// Проверка и вставка выполняются под pg_advisory_xact_lock, поэтому два
// одновременных одинаковых отчета не создадут две записи.
func (r *ViolationRepo) CreateUnlessDuplicate(ctx context.Context, v *entity.Violation, since time.Time) (*entity.Violation, bool, error) {
	var stored *entity.Violation
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", violationLockKey(v.ContestID, v.UserID)).Error; err != nil {
			return fmt.Errorf("acquire violation lock: %w", err)
		}

		q := tx.Where("contest_id = ? AND user_id = ? AND violation_type = ? AND violation_details = ? AND created_at >= ?",
			v.ContestID, v.UserID, v.Kind, v.Detail, since)
		if v.ProblemID == nil {
			q = q.Where("problem_id IS NULL")
		} else {
			q = q.Where("problem_id = ?", *v.ProblemID)
		}

		var existing entity.Violation
		err := q.Order("created_at DESC").First(&existing).Error
		if err == nil {
			stored = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return err
		}
		stored = v
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// GetByID возвращает нарушение по ID
func (r *ViolationRepo) GetByID(ctx context.Context, id uint) (*entity.Violation, error) {
	var v entity.Violation
	err := r.db.WithContext(ctx).First(&v, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Delete удаляет нарушение по ID
func (r *ViolationRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Violation{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ViolationRepo) filtered(ctx context.Context, filter repository.ViolationFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.Violation{}).Where("contest_id = ?", filter.ContestID)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.ProblemID != nil {
		q = q.Where("problem_id = ?", *filter.ProblemID)
	}
	return q
}

// List возвращает нарушения по фильтру с предзагруженными задачей и пользователем
func (r *ViolationRepo) List(ctx context.Context, filter repository.ViolationFilter) ([]entity.Violation, error) {
	var violations []entity.Violation
	err := r.filtered(ctx, filter).
		Preload("Problem").
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&violations).Error
	return violations, err
}

// ListByContest возвращает все нарушения контеста без связей, для движка рейтинга
func (r *ViolationRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Violation, error) {
	var violations []entity.Violation
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("id").
		Find(&violations).Error
	return violations, err
}

// Count возвращает число нарушений по фильтру
func (r *ViolationRepo) Count(ctx context.Context, filter repository.ViolationFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, err
}

// ExistsForContest проверяет, есть ли в контесте хотя бы одно нарушение
func (r *ViolationRepo) ExistsForContest(ctx context.Context, contestID uint) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).
		Raw("SELECT EXISTS(SELECT 1 FROM anti_cheat_violations WHERE contest_id = ?)", contestID).
		Scan(&exists).Error
	return exists, err
}
