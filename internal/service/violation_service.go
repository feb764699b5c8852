package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// GeneralViolationGroup - ключ группы нарушений, не привязанных к задаче
const GeneralViolationGroup = "general"

// ViolationService принимает и отдает нарушения античита
type ViolationService struct {
	access          contestAccess
	problems        repository.ProblemRepository
	violations      repository.ViolationRepository
	submissions     repository.SubmissionRepository
	invalidator     RankInvalidator
	duplicateWindow time.Duration
	logger          *zap.Logger
	now             func() time.Time
}

// NewViolationService создает сервис нарушений
func NewViolationService(
	contests repository.ContestRepository,
	users repository.UserRepository,
	problems repository.ProblemRepository,
	violations repository.ViolationRepository,
	submissions repository.SubmissionRepository,
	invalidator RankInvalidator,
	duplicateWindow time.Duration,
	logger *zap.Logger,
) *ViolationService {
	if duplicateWindow <= 0 {
		duplicateWindow = ranking.DefaultConfig().DuplicateWindow
	}
	return &ViolationService{
		access:          contestAccess{contests: contests, users: users},
		problems:        problems,
		violations:      violations,
		submissions:     submissions,
		invalidator:     invalidator,
		duplicateWindow: duplicateWindow,
		logger:          logger.Named("violation_service"),
		now:             time.Now,
	}
}

// ReportInput - отчет клиента о нарушении
type ReportInput struct {
	ContestID        uint
	UserID           uint
	Kind             string
	Detail           string
	ProblemDisplayID string // пусто для общего нарушения
	IPAddress        string
	UserAgent        string
}

// ReportResult - ответ на отчет о нарушении
type ReportResult struct {
	ViolationID           uint  `json:"violation_id"`
	ProblemViolationCount int64 `json:"problem_violation_count"`
	ProblemPenaltyMinutes int64 `json:"problem_penalty_minutes"`
	Duplicate             bool  `json:"duplicate"`
}

// Report сохраняет нарушение. Повтор того же отчета в окне дедупликации
// возвращает уже сохраненную запись.
func (s *ViolationService) Report(ctx context.Context, in ReportInput) (*ReportResult, error) {
	contest, err := s.access.contests.GetVisibleByID(ctx, in.ContestID)
	if err != nil {
		return nil, err
	}

	var problem *entity.Problem
	if in.ProblemDisplayID != "" {
		problem, err = s.problems.GetByDisplayID(ctx, contest.ID, in.ProblemDisplayID)
		if err != nil {
			return nil, err
		}
	}

	kind, coerced := entity.ParseViolationKind(in.Kind)
	if coerced {
		s.logger.Info("Unknown violation kind coerced",
			zap.String("raw_kind", in.Kind),
			zap.String("kind", string(kind)),
			zap.Uint("contest_id", contest.ID),
			zap.Uint("user_id", in.UserID),
		)
	}

	now := s.now()
	v := &entity.Violation{
		ContestID: contest.ID,
		UserID:    in.UserID,
		Kind:      kind,
		Detail:    in.Detail,
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		CreatedAt: now,
	}
	if problem != nil {
		v.ProblemID = &problem.ID
	}

	stored, created, err := s.violations.CreateUnlessDuplicate(ctx, v, now.Add(-s.duplicateWindow))
	if err != nil {
		return nil, err
	}
	invalidateRank(ctx, s.invalidator, s.logger, contest.ID)

	result := &ReportResult{ViolationID: stored.ID, Duplicate: !created}
	if problem != nil {
		count, err := s.violations.Count(ctx, repository.ViolationFilter{
			ContestID: contest.ID,
			UserID:    &in.UserID,
			ProblemID: &problem.ID,
		})
		if err != nil {
			return nil, err
		}
		result.ProblemViolationCount = count
		result.ProblemPenaltyMinutes = count * ranking.PenaltyMinutesPerViolation
	}

	s.logger.Info("Violation reported",
		zap.Uint("contest_id", contest.ID),
		zap.Uint("user_id", in.UserID),
		zap.Uint("violation_id", stored.ID),
		zap.String("kind", string(kind)),
		zap.Bool("duplicate", !created),
	)
	return result, nil
}

// targetUser определяет, чьи нарушения читает caller.
// Чужие нарушения доступны только администратору контеста.
func (s *ViolationService) targetUser(ctx context.Context, callerID, contestID uint, userID *uint) (*entity.Contest, *uint, error) {
	caller, err := s.access.caller(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	if caller == nil {
		return nil, nil, apperrors.ErrUnauthorized
	}
	contest, isAdmin, err := s.access.contest(ctx, contestID, caller)
	if err != nil {
		return nil, nil, err
	}
	if userID != nil && *userID != callerID {
		if !isAdmin {
			return nil, nil, apperrors.ErrForbidden
		}
		return contest, userID, nil
	}
	if userID == nil && isAdmin {
		return contest, nil, nil
	}
	return contest, &callerID, nil
}

// List возвращает нарушения пользователя в контесте, новые первыми.
// Без userID возвращаются собственные нарушения caller, а администратору - все нарушения контеста.
func (s *ViolationService) List(ctx context.Context, callerID, contestID uint, userID *uint) ([]entity.Violation, error) {
	contest, target, err := s.targetUser(ctx, callerID, contestID, userID)
	if err != nil {
		return nil, err
	}
	return s.violations.List(ctx, repository.ViolationFilter{ContestID: contest.ID, UserID: target})
}

// ProblemViolationGroup - нарушения одного пользователя по одной задаче
type ProblemViolationGroup struct {
	ProblemID      *uint              `json:"problem_id"`
	DisplayID      string             `json:"display_id"`
	Title          string             `json:"title,omitempty"`
	Count          int                `json:"count"`
	PenaltySeconds int64              `json:"penalty_seconds,omitempty"`
	PenaltyMinutes int64              `json:"penalty_minutes,omitempty"`
	Violations     []entity.Violation `json:"violations"`
}

// UserViolationGroup - нарушения одного пользователя, сгруппированные по задачам
type UserViolationGroup struct {
	UserID              uint                    `json:"user_id"`
	Username            string                  `json:"username"`
	TotalViolations     int                     `json:"total_violations"`
	TotalPenaltyMinutes int64                   `json:"total_penalty_minutes"`
	Problems            []ProblemViolationGroup `json:"problems"`
}

// ViolationDetails - нарушения контеста, сгруппированные по пользователям и задачам
type ViolationDetails struct {
	ContestID uint                 `json:"contest_id"`
	RuleType  entity.RuleType      `json:"rule_type"`
	Users     []UserViolationGroup `json:"users"`
}

// Details группирует нарушения по пользователю, затем по задаче; общие нарушения
// попадают в группу "general".
func (s *ViolationService) Details(ctx context.Context, callerID, contestID uint, userID *uint) (*ViolationDetails, error) {
	contest, target, err := s.targetUser(ctx, callerID, contestID, userID)
	if err != nil {
		return nil, err
	}
	violations, err := s.violations.List(ctx, repository.ViolationFilter{ContestID: contest.ID, UserID: target})
	if err != nil {
		return nil, err
	}
	return groupViolations(contest, violations), nil
}

func groupViolations(contest *entity.Contest, violations []entity.Violation) *ViolationDetails {
	type userBucket struct {
		group    UserViolationGroup
		problems map[string]*ProblemViolationGroup
	}
	users := make(map[uint]*userBucket)

	for _, v := range violations {
		ub, ok := users[v.UserID]
		if !ok {
			ub = &userBucket{
				group:    UserViolationGroup{UserID: v.UserID},
				problems: make(map[string]*ProblemViolationGroup),
			}
			if v.User != nil {
				ub.group.Username = v.User.Username
			}
			users[v.UserID] = ub
		}

		key := GeneralViolationGroup
		if v.Problem != nil {
			key = v.Problem.DisplayID
		} else if v.ProblemID != nil {
			key = "#" + strconv.FormatUint(uint64(*v.ProblemID), 10)
		}
		pg, ok := ub.problems[key]
		if !ok {
			pg = &ProblemViolationGroup{ProblemID: v.ProblemID, DisplayID: key}
			if v.Problem != nil {
				pg.Title = v.Problem.Title
			}
			ub.problems[key] = pg
		}
		pg.Violations = append(pg.Violations, v)
		pg.Count++
		ub.group.TotalViolations++
	}

	details := &ViolationDetails{ContestID: contest.ID, RuleType: contest.RuleType, Users: []UserViolationGroup{}}
	for _, ub := range users {
		ub.group.TotalPenaltyMinutes = int64(ub.group.TotalViolations) * ranking.PenaltyMinutesPerViolation
		for _, pg := range ub.problems {
			if contest.RuleType == entity.RuleTypeACM && pg.ProblemID != nil {
				pg.PenaltySeconds = int64(pg.Count) * ranking.ViolationPenaltySeconds
				pg.PenaltyMinutes = int64(pg.Count) * ranking.PenaltyMinutesPerViolation
			}
			ub.group.Problems = append(ub.group.Problems, *pg)
		}
		sort.Slice(ub.group.Problems, func(i, j int) bool {
			a, b := ub.group.Problems[i], ub.group.Problems[j]
			// общая группа всегда последняя
			if (a.ProblemID == nil) != (b.ProblemID == nil) {
				return b.ProblemID == nil
			}
			return a.DisplayID < b.DisplayID
		})
		details.Users = append(details.Users, ub.group)
	}
	sort.Slice(details.Users, func(i, j int) bool {
		return details.Users[i].UserID < details.Users[j].UserID
	})
	return details
}

// UserProblemViolations - нарушения пользователя, при необходимости по одной задаче
type UserProblemViolations struct {
	UserID          uint               `json:"user_id"`
	ProblemID       *uint              `json:"problem_id,omitempty"`
	Violations      []entity.Violation `json:"violations"`
	TotalViolations int                `json:"total_violations"`
	PenaltyMinutes  int64              `json:"penalty_minutes"`
	PenaltySeconds  int64              `json:"penalty_seconds"`
}

// UserViolations возвращает нарушения пользователя с суммарным штрафом
func (s *ViolationService) UserViolations(ctx context.Context, callerID, contestID uint, userID, problemID *uint) (*UserProblemViolations, error) {
	if userID == nil {
		userID = &callerID
	}
	contest, target, err := s.targetUser(ctx, callerID, contestID, userID)
	if err != nil {
		return nil, err
	}
	violations, err := s.violations.List(ctx, repository.ViolationFilter{
		ContestID: contest.ID,
		UserID:    target,
		ProblemID: problemID,
	})
	if err != nil {
		return nil, err
	}
	total := len(violations)
	return &UserProblemViolations{
		UserID:          *target,
		ProblemID:       problemID,
		Violations:      violations,
		TotalViolations: total,
		PenaltyMinutes:  int64(total) * ranking.PenaltyMinutesPerViolation,
		PenaltySeconds:  int64(total) * ranking.ViolationPenaltySeconds,
	}, nil
}

// AntiCheatStatus - сводка нарушений пользователя в контесте
type AntiCheatStatus struct {
	ViolationCount int64 `json:"violation_count"`
	PenaltyMinutes int64 `json:"penalty_minutes"`
	HasViolations  bool  `json:"has_violations"`
}

// Status возвращает сводку нарушений caller в контесте
func (s *ViolationService) Status(ctx context.Context, callerID, contestID uint) (*AntiCheatStatus, error) {
	contest, err := s.access.contests.GetVisibleByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	count, err := s.violations.Count(ctx, repository.ViolationFilter{ContestID: contest.ID, UserID: &callerID})
	if err != nil {
		return nil, err
	}
	return &AntiCheatStatus{
		ViolationCount: count,
		PenaltyMinutes: count * ranking.PenaltyMinutesPerViolation,
		HasViolations:  count > 0,
	}, nil
}

// ProblemAntiCheatStatus - состояние античита для задачи
type ProblemAntiCheatStatus struct {
	ProblemSolved         bool  `json:"problem_solved"`
	AntiCheatRequired     bool  `json:"anti_cheat_required"`
	ProblemViolationCount int64 `json:"problem_violation_count"`
	ProblemPenaltyMinutes int64 `json:"problem_penalty_minutes"`
	AntiCheatEnabled      bool  `json:"anti_cheat_enabled"`
}

// ProblemStatus сообщает клиенту, нужно ли следить за задачей: после AC античит не требуется
func (s *ViolationService) ProblemStatus(ctx context.Context, callerID, contestID uint, problemDisplayID string) (*ProblemAntiCheatStatus, error) {
	contest, err := s.access.contests.GetVisibleByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	problem, err := s.problems.GetByDisplayID(ctx, contest.ID, problemDisplayID)
	if err != nil {
		return nil, err
	}
	solved, err := s.submissions.HasAccepted(ctx, contest.ID, problem.ID, callerID)
	if err != nil {
		return nil, err
	}
	count, err := s.violations.Count(ctx, repository.ViolationFilter{
		ContestID: contest.ID,
		UserID:    &callerID,
		ProblemID: &problem.ID,
	})
	if err != nil {
		return nil, err
	}
	return &ProblemAntiCheatStatus{
		ProblemSolved:         solved,
		AntiCheatRequired:     !solved,
		ProblemViolationCount: count,
		ProblemPenaltyMinutes: count * ranking.PenaltyMinutesPerViolation,
		AntiCheatEnabled:      true,
	}, nil
}

// Delete удаляет нарушение. Только для администратора контеста нарушения.
func (s *ViolationService) Delete(ctx context.Context, callerID, violationID uint) error {
	caller, err := s.access.caller(ctx, callerID)
	if err != nil {
		return err
	}
	if caller == nil {
		return apperrors.ErrUnauthorized
	}
	v, err := s.violations.GetByID(ctx, violationID)
	if err != nil {
		return err
	}
	contest, err := s.access.contests.GetByID(ctx, v.ContestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrForbidden
		}
		return err
	}
	if !contest.IsContestAdmin(caller) {
		return apperrors.ErrForbidden
	}
	if err := s.violations.Delete(ctx, violationID); err != nil {
		return err
	}
	invalidateRank(ctx, s.invalidator, s.logger, contest.ID)

	s.logger.Info("Violation deleted",
		zap.Uint("violation_id", violationID),
		zap.Uint("contest_id", contest.ID),
		zap.Uint("user_id", v.UserID),
		zap.Uint("admin_id", callerID),
	)
	return nil
}
