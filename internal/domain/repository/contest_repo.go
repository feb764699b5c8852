package repository

import (
	"context"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// ContestRepository определяет методы для чтения контестов и их задач
type ContestRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.Contest, error)
	// GetVisibleByID возвращает контест только если он видим участникам
	GetVisibleByID(ctx context.Context, id uint) (*entity.Contest, error)
}

// ProblemRepository определяет методы для чтения задач контеста
type ProblemRepository interface {
	// GetByDisplayID ищет видимую задачу контеста по отображаемому идентификатору
	GetByDisplayID(ctx context.Context, contestID uint, displayID string) (*entity.Problem, error)
	ListByContest(ctx context.Context, contestID uint) ([]entity.Problem, error)
}
