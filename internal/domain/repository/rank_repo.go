package repository

import (
	"context"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// RankRepository определяет методы для работы с сохраненными строками рейтинга
type RankRepository interface {
	// ListACMRows возвращает строки только допущенных к рейтингу пользователей
	ListACMRows(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error)
	ListOIRows(ctx context.Context, contestID uint) ([]entity.OIRankRow, error)
	// ReplaceACMRow перезаписывает строку пары (контест, пользователь) целиком в собственной транзакции
	ReplaceACMRow(ctx context.Context, row *entity.ACMRankRow) error
	ReplaceOIRow(ctx context.Context, row *entity.OIRankRow) error
	DeleteACMRow(ctx context.Context, contestID, userID uint) error
	DeleteOIRow(ctx context.Context, contestID, userID uint) error
}
