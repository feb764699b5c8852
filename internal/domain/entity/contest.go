package entity

import (
	"time"
)

// RuleType определяет правила подсчета рейтинга
type RuleType string

const (
	RuleTypeACM RuleType = "ACM"
	RuleTypeOI  RuleType = "OI"
)

// ContestStatus - состояние контеста относительно текущего времени
type ContestStatus string

const (
	ContestStatusNotStarted ContestStatus = "not_started"
	ContestStatusUnderway   ContestStatus = "underway"
	ContestStatusEnded      ContestStatus = "ended"
)

// Contest представляет соревнование
type Contest struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	RuleType     RuleType  `gorm:"size:8;not null" json:"rule_type"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	CreatedByID  uint      `gorm:"not null;index" json:"created_by_id"`
	Visible      bool      `gorm:"not null;default:true" json:"visible"`
	RealTimeRank bool      `gorm:"not null;default:true" json:"real_time_rank"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Contest) TableName() string {
	return "contests"
}

// Status вычисляет состояние контеста на момент now
func (c *Contest) Status(now time.Time) ContestStatus {
	if now.Before(c.StartTime) {
		return ContestStatusNotStarted
	}
	if now.After(c.EndTime) {
		return ContestStatusEnded
	}
	return ContestStatusUnderway
}

// IsContestAdmin проверяет, может ли пользователь администрировать контест:
// суперадминистратор или администратор, создавший контест.
func (c *Contest) IsContestAdmin(u *User) bool {
	if u == nil {
		return false
	}
	if u.IsSuperAdmin() {
		return true
	}
	return u.AdminType == AdminTypeAdmin && c.CreatedByID == u.ID
}
