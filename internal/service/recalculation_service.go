package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// RecalculateOptions - параметры полного пересчета
type RecalculateOptions struct {
	// Force выполняет пересчет даже если в контесте нет нарушений
	Force bool
	// DryRun только сравнивает строки, ничего не записывая
	DryRun bool
}

// RowChange - разница между сохраненной и пересобранной строкой одного пользователя
type RowChange struct {
	UserID      uint  `json:"user_id"`
	OldAccepted int   `json:"old_accepted_number,omitempty"`
	NewAccepted int   `json:"new_accepted_number,omitempty"`
	OldTime     int64 `json:"old_total_time,omitempty"`
	NewTime     int64 `json:"new_total_time,omitempty"`
	OldScore    int   `json:"old_total_score,omitempty"`
	NewScore    int   `json:"new_total_score,omitempty"`
	// Removed - у пользователя не осталось посылок, строка удаляется
	Removed bool `json:"removed,omitempty"`
}

// RecalculationReport - итог полного пересчета контеста
type RecalculationReport struct {
	ContestID      uint            `json:"contest_id"`
	RuleType       entity.RuleType `json:"rule_type"`
	Skipped        bool            `json:"skipped"`
	SkipReason     string          `json:"skip_reason,omitempty"`
	DryRun         bool            `json:"dry_run"`
	ViolationCount int64           `json:"violation_count"`
	RowsRebuilt    int             `json:"rows_rebuilt"`
	RowsWritten    int             `json:"rows_written"`
	RowsDeleted    int             `json:"rows_deleted"`
	ChangedRows    []RowChange     `json:"changed_rows"`
}

// RecalculationService пересобирает сохраненные строки рейтинга из посылок
type RecalculationService struct {
	access      contestAccess
	contests    repository.ContestRepository
	submissions repository.SubmissionRepository
	violations  repository.ViolationRepository
	ranks       repository.RankRepository
	invalidator RankInvalidator
	workers     int
	logger      *zap.Logger
}

// NewRecalculationService создает сервис полного пересчета
func NewRecalculationService(
	contests repository.ContestRepository,
	users repository.UserRepository,
	submissions repository.SubmissionRepository,
	violations repository.ViolationRepository,
	ranks repository.RankRepository,
	invalidator RankInvalidator,
	workers int,
	logger *zap.Logger,
) *RecalculationService {
	if workers < 1 {
		workers = ranking.DefaultConfig().RecalcWorkers
	}
	return &RecalculationService{
		access:      contestAccess{contests: contests, users: users},
		contests:    contests,
		submissions: submissions,
		violations:  violations,
		ranks:       ranks,
		invalidator: invalidator,
		workers:     workers,
		logger:      logger.Named("recalculation"),
	}
}

// RecalculateAs запускает пересчет от имени пользователя; доступно только администратору контеста
func (s *RecalculationService) RecalculateAs(ctx context.Context, callerID, contestID uint, opts RecalculateOptions) (*RecalculationReport, error) {
	caller, err := s.access.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, apperrors.ErrUnauthorized
	}
	_, isAdmin, err := s.access.contest(ctx, contestID, caller)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperrors.ErrForbidden
	}
	s.logger.Info("Recalculation requested",
		zap.Uint("contest_id", contestID), zap.Uint("user_id", callerID),
		zap.Bool("force", opts.Force), zap.Bool("dry_run", opts.DryRun))
	return s.Recalculate(ctx, contestID, opts)
}

// Recalculate пересобирает строки рейтинга контеста.
// Каждая строка пишется в собственной транзакции; при ошибке уже записанные строки остаются,
// повторный запуск приводит контест в согласованное состояние.
func (s *RecalculationService) Recalculate(ctx context.Context, contestID uint, opts RecalculateOptions) (*RecalculationReport, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	report := &RecalculationReport{
		ContestID:   contest.ID,
		RuleType:    contest.RuleType,
		DryRun:      opts.DryRun,
		ChangedRows: []RowChange{},
	}

	count, err := s.violations.Count(ctx, repository.ViolationFilter{ContestID: contest.ID})
	if err != nil {
		return nil, fmt.Errorf("count violations for contest %d: %w", contest.ID, err)
	}
	report.ViolationCount = count
	if count == 0 && !opts.Force {
		report.Skipped = true
		report.SkipReason = "contest has no violations"
		s.logger.Info("Recalculation skipped", zap.Uint("contest_id", contest.ID), zap.String("reason", report.SkipReason))
		return report, nil
	}

	subs, err := s.submissions.ListByContest(ctx, contest.ID)
	if err != nil {
		return nil, fmt.Errorf("load submissions for contest %d: %w", contest.ID, err)
	}

	switch contest.RuleType {
	case entity.RuleTypeACM:
		err = s.recalculateACM(ctx, contest, subs, opts, report)
	case entity.RuleTypeOI:
		err = s.recalculateOI(ctx, contest, subs, opts, report)
	default:
		err = fmt.Errorf("contest %d has unsupported rule type %q", contest.ID, contest.RuleType)
	}
	if err != nil {
		// Часть строк уже могла быть записана
		if report.RowsWritten+report.RowsDeleted > 0 {
			invalidateRank(ctx, s.invalidator, s.logger, contest.ID)
		}
		return nil, err
	}

	sort.Slice(report.ChangedRows, func(i, j int) bool {
		return report.ChangedRows[i].UserID < report.ChangedRows[j].UserID
	})

	if !opts.DryRun {
		invalidateRank(ctx, s.invalidator, s.logger, contest.ID)
	}
	s.logger.Info("Recalculation finished",
		zap.Uint("contest_id", contest.ID),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("rows_rebuilt", report.RowsRebuilt),
		zap.Int("rows_changed", len(report.ChangedRows)),
		zap.Int("rows_deleted", report.RowsDeleted),
	)
	return report, nil
}

func (s *RecalculationService) recalculateACM(ctx context.Context, contest *entity.Contest, subs []entity.Submission, opts RecalculateOptions, report *RecalculationReport) error {
	current, err := s.ranks.ListACMRows(ctx, contest.ID)
	if err != nil {
		return fmt.Errorf("load acm rows for contest %d: %w", contest.ID, err)
	}
	old := make(map[uint]entity.ACMRankRow, len(current))
	for _, row := range current {
		old[row.UserID] = row
	}

	rebuilt := ranking.RebuildACMRows(contest, subs)
	report.RowsRebuilt = len(rebuilt)
	for userID, row := range rebuilt {
		prev, existed := old[userID]
		if !existed || prev.AcceptedNumber != row.AcceptedNumber || prev.TotalTime != row.TotalTime {
			report.ChangedRows = append(report.ChangedRows, RowChange{
				UserID:      userID,
				OldAccepted: prev.AcceptedNumber,
				NewAccepted: row.AcceptedNumber,
				OldTime:     prev.TotalTime,
				NewTime:     row.TotalTime,
			})
		}
	}
	var orphans []uint
	for userID, prev := range old {
		if _, ok := rebuilt[userID]; !ok {
			orphans = append(orphans, userID)
			report.ChangedRows = append(report.ChangedRows, RowChange{
				UserID:      userID,
				OldAccepted: prev.AcceptedNumber,
				OldTime:     prev.TotalTime,
				Removed:     true,
			})
		}
	}
	if opts.DryRun {
		return nil
	}

	var written, deleted atomic.Int64
	defer func() {
		report.RowsWritten = int(written.Load())
		report.RowsDeleted = int(deleted.Load())
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, row := range rebuilt {
		row := row
		g.Go(func() error {
			if err := s.ranks.ReplaceACMRow(gctx, &row); err != nil {
				return fmt.Errorf("save acm row contest %d user %d: %w", row.ContestID, row.UserID, err)
			}
			written.Add(1)
			return nil
		})
	}
	for _, userID := range orphans {
		userID := userID
		g.Go(func() error {
			if err := s.ranks.DeleteACMRow(gctx, contest.ID, userID); err != nil {
				return fmt.Errorf("delete acm row contest %d user %d: %w", contest.ID, userID, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	return g.Wait()
}

func (s *RecalculationService) recalculateOI(ctx context.Context, contest *entity.Contest, subs []entity.Submission, opts RecalculateOptions, report *RecalculationReport) error {
	current, err := s.ranks.ListOIRows(ctx, contest.ID)
	if err != nil {
		return fmt.Errorf("load oi rows for contest %d: %w", contest.ID, err)
	}
	old := make(map[uint]entity.OIRankRow, len(current))
	for _, row := range current {
		old[row.UserID] = row
	}

	rebuilt := ranking.RebuildOIRows(contest, subs)
	report.RowsRebuilt = len(rebuilt)
	for userID, row := range rebuilt {
		if prev, existed := old[userID]; !existed || prev.TotalScore != row.TotalScore {
			report.ChangedRows = append(report.ChangedRows, RowChange{
				UserID:   userID,
				OldScore: prev.TotalScore,
				NewScore: row.TotalScore,
			})
		}
	}
	var orphans []uint
	for userID, prev := range old {
		if _, ok := rebuilt[userID]; !ok {
			orphans = append(orphans, userID)
			report.ChangedRows = append(report.ChangedRows, RowChange{
				UserID:   userID,
				OldScore: prev.TotalScore,
				Removed:  true,
			})
		}
	}
	if opts.DryRun {
		return nil
	}

	var written, deleted atomic.Int64
	defer func() {
		report.RowsWritten = int(written.Load())
		report.RowsDeleted = int(deleted.Load())
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, row := range rebuilt {
		row := row
		g.Go(func() error {
			if err := s.ranks.ReplaceOIRow(gctx, &row); err != nil {
				return fmt.Errorf("save oi row contest %d user %d: %w", row.ContestID, row.UserID, err)
			}
			written.Add(1)
			return nil
		})
	}
	for _, userID := range orphans {
		userID := userID
		g.Go(func() error {
			if err := s.ranks.DeleteOIRow(gctx, contest.ID, userID); err != nil {
				return fmt.Errorf("delete oi row contest %d user %d: %w", contest.ID, userID, err)
			}
			deleted.Add(1)
			return nil
		})
	}
	return g.Wait()
}
