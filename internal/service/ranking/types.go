package ranking

import (
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// Штрафные константы
const (
	// ViolationPenaltySeconds добавляется к ac_time принятой задачи за каждое нарушение на ней (ACM)
	ViolationPenaltySeconds int64 = 10 * 60

	// ReviewAbsencePenaltySeconds добавляется один раз к total_time, если после окончания контеста нет отзыва (ACM)
	ReviewAbsencePenaltySeconds int64 = 60 * 60

	// OIViolationPenaltyPoints вычитается из total_score за каждое нарушение (OI)
	OIViolationPenaltyPoints = 10

	// PenaltyMinutesPerViolation - значение, которое показывается клиенту в отчетах о нарушениях
	PenaltyMinutesPerViolation = 10
)

// Config содержит настройки подсистемы рейтинга
type Config struct {
	CacheTTL        time.Duration // Время жизни закешированного рейтинга
	DuplicateWindow time.Duration // Окно подавления повторных отчетов о нарушении
	RecalcWorkers   int           // Параллелизм полного пересчета
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:        60 * time.Second,
		DuplicateWindow: 15 * time.Second,
		RecalcWorkers:   4,
	}
}

// PenaltyAnnotation - результат наложения штрафов на одну строку рейтинга.
// Существует только в ответе, никогда не сохраняется.
type PenaltyAnnotation struct {
	ViolationCount         int          `json:"violation_count"`
	ProblemViolationCounts map[uint]int `json:"problem_violation_counts,omitempty"`

	// ACM
	TotalPenaltyTime     int64          `json:"total_penalty_time,omitempty"`
	ProblemPenalties     map[uint]int64 `json:"problem_penalties,omitempty"`
	ReviewPenaltyApplied bool           `json:"review_penalty_applied"`
	ReviewPenaltySeconds int64          `json:"review_penalty_seconds,omitempty"`
	OriginalTotalTime    *int64         `json:"original_total_time,omitempty"`
	OriginalACTimes      map[uint]int64 `json:"original_ac_times,omitempty"`

	// OI
	PenaltyPoints      int               `json:"penalty_points,omitempty"`
	OriginalTotalScore *int              `json:"original_total_score,omitempty"`
	PenaltyBreakdown   *PenaltyBreakdown `json:"penalty_breakdown,omitempty"`

	// Degraded выставляется, если штраф для строки не удалось вычислить и она выдана без штрафа
	Degraded bool `json:"degraded,omitempty"`
}

// Public возвращает копию аннотации без полей, доступных только администратору контеста
func (a PenaltyAnnotation) Public() PenaltyAnnotation {
	a.OriginalTotalTime = nil
	a.OriginalACTimes = nil
	a.OriginalTotalScore = nil
	a.PenaltyBreakdown = nil
	return a
}

// RankedRow - строка итогового рейтинга: неизменяемая копия базовой строки
// с уже примененными штрафами и парная к ней аннотация.
// Заполнено ровно одно из полей ACM / OI в зависимости от правил контеста.
type RankedRow struct {
	Rank       int                `json:"rank"`
	ACM        *entity.ACMRankRow `json:"acm,omitempty"`
	OI         *entity.OIRankRow  `json:"oi,omitempty"`
	Annotation PenaltyAnnotation  `json:"annotation"`
}

// UserID возвращает ID пользователя строки
func (r *RankedRow) UserID() uint {
	if r.ACM != nil {
		return r.ACM.UserID
	}
	if r.OI != nil {
		return r.OI.UserID
	}
	return 0
}

// Ranking - упорядоченный рейтинг контеста, результат одного вычисления
type Ranking struct {
	ContestID     uint            `json:"contest_id"`
	RuleType      entity.RuleType `json:"rule_type"`
	Rows          []RankedRow     `json:"rows"`
	ComputedAt    time.Time       `json:"computed_at"`
	ViolationFree bool            `json:"violation_free"` // на момент вычисления в контесте не было нарушений
}

// Source описывает, откуда получен рейтинг
type Source string

const (
	SourceCache  Source = "cache"
	SourceFresh  Source = "fresh"  // промах кеша, результат закеширован
	SourceBypass Source = "bypass" // в контесте есть нарушения, кеш не используется
	SourceForced Source = "forced" // принудительный пересчет администратором
)
