package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// ViolationSource - источник нарушений контеста
type ViolationSource interface {
	ListByContest(ctx context.Context, contestID uint) ([]entity.Violation, error)
	ExistsForContest(ctx context.Context, contestID uint) (bool, error)
}

// ReviewSource - источник фактов о наличии отзывов
type ReviewSource interface {
	UserIDsWithReview(ctx context.Context, contestID uint) ([]uint, error)
}

// Engine - единственное место, где определяется итоговое положение участника:
// базовый снимок + штрафы + сортировка + аннотации.
type Engine struct {
	aggregator *Aggregator
	violations ViolationSource
	reviews    ReviewSource
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine создает движок рейтинга
func NewEngine(aggregator *Aggregator, violations ViolationSource, reviews ReviewSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		aggregator: aggregator,
		violations: violations,
		reviews:    reviews,
		logger:     logger.Named("ranking_engine"),
		now:        time.Now,
	}
}

// facts - нарушения и отзывы, прочитанные один раз на вычисление
type facts struct {
	byUser       map[uint][]entity.Violation
	reviewed     map[uint]bool
	contestEnded bool
	total        int
}

func (e *Engine) loadFacts(ctx context.Context, contest *entity.Contest) (*facts, error) {
	violations, err := e.violations.ListByContest(ctx, contest.ID)
	if err != nil {
		return nil, fmt.Errorf("load violations for contest %d: %w", contest.ID, err)
	}
	f := &facts{
		byUser:       make(map[uint][]entity.Violation),
		reviewed:     make(map[uint]bool),
		contestEnded: contest.Status(e.now()) == entity.ContestStatusEnded,
		total:        len(violations),
	}
	for _, v := range violations {
		f.byUser[v.UserID] = append(f.byUser[v.UserID], v)
	}

	// Отзывы влияют на штраф только после окончания ACM-контеста
	if f.contestEnded && contest.RuleType == entity.RuleTypeACM {
		ids, err := e.reviews.UserIDsWithReview(ctx, contest.ID)
		if err != nil {
			return nil, fmt.Errorf("load reviews for contest %d: %w", contest.ID, err)
		}
		for _, id := range ids {
			f.reviewed[id] = true
		}
	}
	return f, nil
}

// Compute строит итоговый рейтинг контеста. Ошибки чтения фактов возвращаются
// целиком; ошибка расчета штрафа для одной строки понижает ее до строки без штрафа.
func (e *Engine) Compute(ctx context.Context, contest *entity.Contest) (*Ranking, error) {
	f, err := e.loadFacts(ctx, contest)
	if err != nil {
		return nil, err
	}

	ranking := &Ranking{
		ContestID:     contest.ID,
		RuleType:      contest.RuleType,
		Rows:          []RankedRow{},
		ComputedAt:    e.now(),
		ViolationFree: f.total == 0,
	}

	switch contest.RuleType {
	case entity.RuleTypeACM:
		base, err := e.aggregator.ACMSnapshot(ctx, contest.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range base {
			ranking.Rows = append(ranking.Rows, e.rankACMRow(contest, row, f))
		}
		sortACM(ranking.Rows)
	case entity.RuleTypeOI:
		base, err := e.aggregator.OISnapshot(ctx, contest.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range base {
			ranking.Rows = append(ranking.Rows, e.rankOIRow(contest, row, f))
		}
		sortOI(ranking.Rows)
	default:
		return nil, fmt.Errorf("contest %d has unsupported rule type %q", contest.ID, contest.RuleType)
	}

	for i := range ranking.Rows {
		ranking.Rows[i].Rank = i + 1
	}
	return ranking, nil
}

// safePenalty изолирует панику калькулятора, превращая ее в ComputationError
func safePenalty(in PenaltyInput) (b PenaltyBreakdown, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ComputationError{
				Stage:     StagePenalty,
				ContestID: in.ContestID,
				UserID:    in.UserID,
				Err:       fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return CalculatePenalty(in)
}

func (e *Engine) logDegraded(err error, contestID, userID uint) {
	var ce *ComputationError
	if !errors.As(err, &ce) {
		ce = &ComputationError{Stage: StagePenalty, ContestID: contestID, UserID: userID, Err: err}
	}
	e.logger.Error("Penalty computation failed, row emitted without penalty",
		zap.String("stage", ce.Stage),
		zap.Uint("contest_id", ce.ContestID),
		zap.Uint("user_id", ce.UserID),
		zap.Error(ce.Err),
	)
}

func (e *Engine) rankACMRow(contest *entity.Contest, base entity.ACMRankRow, f *facts) RankedRow {
	accepted := make(map[uint]bool, len(base.SubmissionInfo))
	for problemID, info := range base.SubmissionInfo {
		if info.IsAC {
			accepted[problemID] = true
		}
	}

	breakdown, err := safePenalty(PenaltyInput{
		RuleType:         entity.RuleTypeACM,
		ContestID:        contest.ID,
		UserID:           base.UserID,
		Violations:       f.byUser[base.UserID],
		AcceptedProblems: accepted,
		ContestEnded:     f.contestEnded,
		HasReview:        f.reviewed[base.UserID],
	})

	row := base.Clone()
	originalTotal := base.TotalTime
	if err != nil {
		e.logDegraded(err, contest.ID, base.UserID)
		return RankedRow{
			ACM:        &row,
			Annotation: PenaltyAnnotation{OriginalTotalTime: &originalTotal, Degraded: true},
		}
	}

	originalACTimes := make(map[uint]int64, len(breakdown.ProblemPenalties))
	for problemID, penalty := range breakdown.ProblemPenalties {
		info := row.SubmissionInfo[problemID]
		originalACTimes[problemID] = info.ACTime
		info.ACTime += penalty
		row.SubmissionInfo[problemID] = info
	}
	row.TotalTime += breakdown.TotalPenaltySeconds

	return RankedRow{
		ACM: &row,
		Annotation: PenaltyAnnotation{
			ViolationCount:         breakdown.ViolationCount,
			ProblemViolationCounts: breakdown.ProblemViolationCounts,
			TotalPenaltyTime:       breakdown.TotalPenaltySeconds,
			ProblemPenalties:       breakdown.ProblemPenalties,
			ReviewPenaltyApplied:   breakdown.ReviewPenaltySeconds > 0,
			ReviewPenaltySeconds:   breakdown.ReviewPenaltySeconds,
			OriginalTotalTime:      &originalTotal,
			OriginalACTimes:        originalACTimes,
		},
	}
}

func (e *Engine) rankOIRow(contest *entity.Contest, base entity.OIRankRow, f *facts) RankedRow {
	breakdown, err := safePenalty(PenaltyInput{
		RuleType:   entity.RuleTypeOI,
		ContestID:  contest.ID,
		UserID:     base.UserID,
		Violations: f.byUser[base.UserID],
	})

	row := base.Clone()
	originalScore := base.TotalScore
	if err != nil {
		e.logDegraded(err, contest.ID, base.UserID)
		return RankedRow{
			OI:         &row,
			Annotation: PenaltyAnnotation{OriginalTotalScore: &originalScore, Degraded: true},
		}
	}

	row.TotalScore = ApplyOIPenalty(base.TotalScore, breakdown.PenaltyPoints)

	return RankedRow{
		OI: &row,
		Annotation: PenaltyAnnotation{
			ViolationCount:         breakdown.ViolationCount,
			ProblemViolationCounts: breakdown.ProblemViolationCounts,
			PenaltyPoints:          breakdown.PenaltyPoints,
			OriginalTotalScore:     &originalScore,
			PenaltyBreakdown:       &breakdown,
		},
	}
}

// sortACM: больше принятых задач выше, при равенстве меньше штрафного времени
func sortACM(rows []RankedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ACM, rows[j].ACM
		if a.AcceptedNumber != b.AcceptedNumber {
			return a.AcceptedNumber > b.AcceptedNumber
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.UserID < b.UserID
	})
}

// sortOI: больше баллов с учетом штрафа выше
func sortOI(rows []RankedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].OI, rows[j].OI
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		return a.UserID < b.UserID
	})
}
