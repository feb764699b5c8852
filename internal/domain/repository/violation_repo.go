package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// ViolationFilter задает выборку нарушений. Nil-поля не фильтруют.
type ViolationFilter struct {
	ContestID uint
	UserID    *uint
	ProblemID *uint
}

// ViolationRepository определяет методы для работы с нарушениями античита
type ViolationRepository interface {
	// CreateUnlessDuplicate в одной транзакции ищет такое же нарушение
	// (контест, пользователь, задача, тип, детали), созданное не раньше since.
	// Если оно найдено, возвращает его и created=false, иначе сохраняет v.
	CreateUnlessDuplicate(ctx context.Context, v *entity.Violation, since time.Time) (stored *entity.Violation, created bool, err error)
	GetByID(ctx context.Context, id uint) (*entity.Violation, error)
	Delete(ctx context.Context, id uint) error
	// List возвращает нарушения с предзагруженными задачей и пользователем, новые первыми
	List(ctx context.Context, filter ViolationFilter) ([]entity.Violation, error)
	ListByContest(ctx context.Context, contestID uint) ([]entity.Violation, error)
	Count(ctx context.Context, filter ViolationFilter) (int64, error)
	ExistsForContest(ctx context.Context, contestID uint) (bool, error)
}
