package entity

import (
	"time"
)

// Коды вердиктов судьи
const (
	JudgeCompileError      = -2
	JudgeWrongAnswer       = -1
	JudgeAccepted          = 0
	JudgeCPUTimeLimit      = 1
	JudgeRealTimeLimit     = 2
	JudgeMemoryLimit       = 3
	JudgeRuntimeError      = 4
	JudgeSystemError       = 5
	JudgePending           = 6
	JudgeJudging           = 7
	JudgePartiallyAccepted = 8
)

// Submission - посылка решения. Только для чтения с точки зрения рейтинга.
type Submission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index:idx_submission_contest_user" json:"contest_id"`
	UserID    uint      `gorm:"not null;index:idx_submission_contest_user" json:"user_id"`
	ProblemID uint      `gorm:"not null;index" json:"problem_id"`
	Result    int       `gorm:"not null" json:"result"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Submission) TableName() string {
	return "submissions"
}

// IsAccepted возвращает true, если посылка принята
func (s *Submission) IsAccepted() bool {
	return s.Result == JudgeAccepted
}
