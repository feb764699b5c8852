package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// ContestRepo реализует repository.ContestRepository
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo создает новый репозиторий контестов
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// GetByID возвращает контест по ID независимо от видимости
func (r *ContestRepo) GetByID(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.WithContext(ctx).First(&contest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// GetVisibleByID возвращает контест, только если он видим
func (r *ContestRepo) GetVisibleByID(ctx context.Context, id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.WithContext(ctx).Where("id = ? AND visible = ?", id, true).First(&contest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// ProblemRepo реализует repository.ProblemRepository
type ProblemRepo struct {
	db *gorm.DB
}

// NewProblemRepo создает новый репозиторий задач
func NewProblemRepo(db *gorm.DB) *ProblemRepo {
	return &ProblemRepo{db: db}
}

// GetByDisplayID ищет видимую задачу контеста по отображаемому ID
func (r *ProblemRepo) GetByDisplayID(ctx context.Context, contestID uint, displayID string) (*entity.Problem, error) {
	var problem entity.Problem
	err := r.db.WithContext(ctx).
		Where("contest_id = ? AND display_id = ? AND visible = ?", contestID, displayID, true).
		First(&problem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &problem, nil
}

// ListByContest возвращает все задачи контеста, упорядоченные по отображаемому ID
func (r *ProblemRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Problem, error) {
	var problems []entity.Problem
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", contestID).
		Order("display_id").
		Find(&problems).Error
	return problems, err
}
