package entity

import (
	"time"
)

// Problem представляет задачу контеста.
// DisplayID - идентификатор, который видит участник (например, "A" или "1001").
type Problem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DisplayID string    `gorm:"size:32;not null;uniqueIndex:idx_problem_contest_display" json:"display_id"`
	ContestID uint      `gorm:"not null;index;uniqueIndex:idx_problem_contest_display" json:"contest_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Visible   bool      `gorm:"not null;default:true" json:"visible"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Problem) TableName() string {
	return "problems"
}
