package ranking

import (
	"fmt"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// Этапы вычисления рейтинга, на которых может возникнуть ComputationError
const (
	StagePenalty   = "penalty"
	StageAggregate = "aggregate"
)

// ComputationError - ошибка вычисления одной строки рейтинга.
// Движок перехватывает ее, логирует и выдает строку без штрафа;
// наружу она не пробрасывается.
type ComputationError struct {
	Stage     string
	ContestID uint
	UserID    uint
	Err       error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("ranking %s stage failed for contest %d user %d: %v", e.Stage, e.ContestID, e.UserID, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// PenaltyBreakdown - структурированный результат калькулятора штрафов
type PenaltyBreakdown struct {
	RuleType               entity.RuleType `json:"rule_type"`
	ViolationCount         int             `json:"violation_count"`
	ProblemViolationCounts map[uint]int    `json:"problem_violation_counts,omitempty"`
	ProblemPenalties       map[uint]int64  `json:"problem_penalties,omitempty"` // ACM: секунды, добавленные к ac_time задачи
	ReviewPenaltySeconds   int64           `json:"review_penalty_seconds,omitempty"`
	TotalPenaltySeconds    int64           `json:"total_penalty_seconds,omitempty"`
	PenaltyPoints          int             `json:"penalty_points,omitempty"` // OI: баллы, вычитаемые из total_score
}

// PenaltyInput - факты, необходимые для расчета штрафа одного пользователя
type PenaltyInput struct {
	RuleType  entity.RuleType
	ContestID uint
	UserID    uint
	// Violations - все нарушения пользователя в контесте, включая общие
	Violations []entity.Violation
	// AcceptedProblems - задачи, принятые пользователем (только ACM)
	AcceptedProblems map[uint]bool
	ContestEnded     bool
	HasReview        bool
}

// CalculatePenalty вычисляет штраф пользователя без побочных эффектов.
//
// ACM: каждая принятая задача получает ViolationPenaltySeconds за каждое нарушение,
// привязанное к ней. Общие нарушения учитываются в ViolationCount, но времени не добавляют.
// После окончания контеста пользователь без отзыва получает ReviewAbsencePenaltySeconds
// один раз, независимо от числа нарушений.
//
// OI: PenaltyPoints = ViolationCount * OIViolationPenaltyPoints на весь контест.
func CalculatePenalty(in PenaltyInput) (PenaltyBreakdown, error) {
	b := PenaltyBreakdown{
		RuleType:               in.RuleType,
		ProblemViolationCounts: make(map[uint]int),
		ProblemPenalties:       make(map[uint]int64),
	}

	for i := range in.Violations {
		v := &in.Violations[i]
		if v.ContestID != in.ContestID || v.UserID != in.UserID {
			return PenaltyBreakdown{}, &ComputationError{
				Stage:     StagePenalty,
				ContestID: in.ContestID,
				UserID:    in.UserID,
				Err:       fmt.Errorf("violation %d belongs to contest %d user %d", v.ID, v.ContestID, v.UserID),
			}
		}
		b.ViolationCount++
		if v.ProblemID != nil {
			b.ProblemViolationCounts[*v.ProblemID]++
		}
	}

	switch in.RuleType {
	case entity.RuleTypeACM:
		for problemID, count := range b.ProblemViolationCounts {
			if !in.AcceptedProblems[problemID] {
				continue
			}
			penalty := int64(count) * ViolationPenaltySeconds
			b.ProblemPenalties[problemID] = penalty
			b.TotalPenaltySeconds += penalty
		}
		if in.ContestEnded && !in.HasReview {
			b.ReviewPenaltySeconds = ReviewAbsencePenaltySeconds
			b.TotalPenaltySeconds += ReviewAbsencePenaltySeconds
		}
	case entity.RuleTypeOI:
		b.PenaltyPoints = b.ViolationCount * OIViolationPenaltyPoints
	default:
		return PenaltyBreakdown{}, &ComputationError{
			Stage:     StagePenalty,
			ContestID: in.ContestID,
			UserID:    in.UserID,
			Err:       fmt.Errorf("unknown rule type %q", in.RuleType),
		}
	}

	return b, nil
}

// ApplyOIPenalty вычитает штрафные баллы, не опускаясь ниже нуля
func ApplyOIPenalty(score, penaltyPoints int) int {
	if penaltyPoints >= score {
		return 0
	}
	return score - penaltyPoints
}
