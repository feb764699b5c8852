package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Штраф за каждую неверную попытку до первого AC (ACM), в секундах
const WrongAttemptPenaltySeconds = 20 * 60

// ACMProblemInfo - состояние одной задачи в строке ACM-рейтинга
type ACMProblemInfo struct {
	IsAC        bool  `json:"is_ac"`
	ACTime      int64 `json:"ac_time"` // секунды от начала контеста плюс штраф за неверные попытки
	ErrorNumber int   `json:"error_number"`
	IsFirstAC   bool  `json:"is_first_ac"`
}

// ACMSubmissionInfo - problemID -> состояние задачи, хранится в JSONB
type ACMSubmissionInfo map[uint]ACMProblemInfo

// Scan реализует интерфейс sql.Scanner для ACMSubmissionInfo
func (s *ACMSubmissionInfo) Scan(value interface{}) error {
	if value == nil {
		*s = ACMSubmissionInfo{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = ACMSubmissionInfo{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для ACMSubmissionInfo
func (s ACMSubmissionInfo) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Clone возвращает независимую копию карты
func (s ACMSubmissionInfo) Clone() ACMSubmissionInfo {
	out := make(ACMSubmissionInfo, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// OISubmissionInfo - problemID -> лучший балл по задаче, хранится в JSONB
type OISubmissionInfo map[uint]int

// Scan реализует интерфейс sql.Scanner для OISubmissionInfo
func (s *OISubmissionInfo) Scan(value interface{}) error {
	if value == nil {
		*s = OISubmissionInfo{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*s = OISubmissionInfo{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value реализует интерфейс driver.Valuer для OISubmissionInfo
func (s OISubmissionInfo) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(s)
}

// Clone возвращает независимую копию карты
func (s OISubmissionInfo) Clone() OISubmissionInfo {
	out := make(OISubmissionInfo, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ACMRankRow - производный снимок положения пользователя в ACM-контесте.
// Ровно одна строка на пару (контест, пользователь); всегда может быть
// пересобрана из посылок и перезаписывается целиком.
type ACMRankRow struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	ContestID        uint              `gorm:"not null;uniqueIndex:idx_acm_rank_contest_user" json:"contest_id"`
	UserID           uint              `gorm:"not null;uniqueIndex:idx_acm_rank_contest_user" json:"user_id"`
	SubmissionNumber int               `gorm:"not null;default:0" json:"submission_number"`
	AcceptedNumber   int               `gorm:"not null;default:0" json:"accepted_number"`
	TotalTime        int64             `gorm:"not null;default:0" json:"total_time"`
	SubmissionInfo   ACMSubmissionInfo `gorm:"type:jsonb;not null" json:"submission_info"`
	UpdatedAt        time.Time         `json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (ACMRankRow) TableName() string {
	return "acm_contest_ranks"
}

// Clone возвращает копию строки, не разделяющую карту submission_info с оригиналом
func (r ACMRankRow) Clone() ACMRankRow {
	r.SubmissionInfo = r.SubmissionInfo.Clone()
	return r
}

// OIRankRow - производный снимок положения пользователя в OI-контесте
type OIRankRow struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	ContestID        uint             `gorm:"not null;uniqueIndex:idx_oi_rank_contest_user" json:"contest_id"`
	UserID           uint             `gorm:"not null;uniqueIndex:idx_oi_rank_contest_user" json:"user_id"`
	SubmissionNumber int              `gorm:"not null;default:0" json:"submission_number"`
	TotalScore       int              `gorm:"not null;default:0" json:"total_score"`
	SubmissionInfo   OISubmissionInfo `gorm:"type:jsonb;not null" json:"submission_info"`
	UpdatedAt        time.Time        `json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (OIRankRow) TableName() string {
	return "oi_contest_ranks"
}

// Clone возвращает копию строки, не разделяющую карту submission_info с оригиналом
func (r OIRankRow) Clone() OIRankRow {
	r.SubmissionInfo = r.SubmissionInfo.Clone()
	return r
}
