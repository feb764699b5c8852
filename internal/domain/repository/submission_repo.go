package repository

import (
	"context"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// SubmissionRepository определяет методы для чтения посылок
type SubmissionRepository interface {
	// ListByContest возвращает все посылки контеста в порядке создания
	ListByContest(ctx context.Context, contestID uint) ([]entity.Submission, error)
	HasAccepted(ctx context.Context, contestID, problemID, userID uint) (bool, error)
}
