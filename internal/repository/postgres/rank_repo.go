package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// RankRepo реализует repository.RankRepository
type RankRepo struct {
	db *gorm.DB
}

// NewRankRepo создает новый репозиторий строк рейтинга
func NewRankRepo(db *gorm.DB) *RankRepo {
	return &RankRepo{db: db}
}

// eligible ограничивает выборку строками обычных незаблокированных пользователей
func eligible(q *gorm.DB, table string) *gorm.DB {
	return q.Joins("JOIN users ON users.id = "+table+".user_id").
		Where("users.admin_type = ? AND users.is_disabled = ?", entity.AdminTypeRegular, false)
}

// ListACMRows возвращает ACM-строки контеста для допущенных пользователей
func (r *RankRepo) ListACMRows(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error) {
	var rows []entity.ACMRankRow
	q := r.db.WithContext(ctx).Where("acm_contest_ranks.contest_id = ?", contestID)
	err := eligible(q, "acm_contest_ranks").
		Preload("User").
		Order("acm_contest_ranks.user_id").
		Find(&rows).Error
	return rows, err
}

// ListOIRows возвращает OI-строки контеста для допущенных пользователей
func (r *RankRepo) ListOIRows(ctx context.Context, contestID uint) ([]entity.OIRankRow, error) {
	var rows []entity.OIRankRow
	q := r.db.WithContext(ctx).Where("oi_contest_ranks.contest_id = ?", contestID)
	err := eligible(q, "oi_contest_ranks").
		Preload("User").
		Order("oi_contest_ranks.user_id").
		Find(&rows).Error
	return rows, err
}

// ReplaceACMRow удаляет прежнюю строку пары (контест, пользователь) и вставляет новую
func (r *RankRepo) ReplaceACMRow(ctx context.Context, row *entity.ACMRankRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contest_id = ? AND user_id = ?", row.ContestID, row.UserID).
			Delete(&entity.ACMRankRow{}).Error; err != nil {
			return err
		}
		row.ID = 0
		return tx.Omit(clause.Associations).Create(row).Error
	})
}

// ReplaceOIRow удаляет прежнюю строку пары (контест, пользователь) и вставляет новую
func (r *RankRepo) ReplaceOIRow(ctx context.Context, row *entity.OIRankRow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contest_id = ? AND user_id = ?", row.ContestID, row.UserID).
			Delete(&entity.OIRankRow{}).Error; err != nil {
			return err
		}
		row.ID = 0
		return tx.Omit(clause.Associations).Create(row).Error
	})
}

// DeleteACMRow удаляет строку пользователя, у которого не осталось посылок
func (r *RankRepo) DeleteACMRow(ctx context.Context, contestID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Delete(&entity.ACMRankRow{}).Error
}

// DeleteOIRow удаляет строку пользователя, у которого не осталось посылок
func (r *RankRepo) DeleteOIRow(ctx context.Context, contestID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("contest_id = ? AND user_id = ?", contestID, userID).
		Delete(&entity.OIRankRow{}).Error
}
