package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

type MockContestRepo struct {
	mock.Mock
}

func (m *MockContestRepo) GetByID(ctx context.Context, id uint) (*entity.Contest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Contest), args.Error(1)
}

func (m *MockContestRepo) GetVisibleByID(ctx context.Context, id uint) (*entity.Contest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Contest), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

type MockProblemRepo struct {
	mock.Mock
}

func (m *MockProblemRepo) GetByDisplayID(ctx context.Context, contestID uint, displayID string) (*entity.Problem, error) {
	args := m.Called(ctx, contestID, displayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Problem), args.Error(1)
}

func (m *MockProblemRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Problem, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Problem), args.Error(1)
}

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Submission, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) HasAccepted(ctx context.Context, contestID, problemID, userID uint) (bool, error) {
	args := m.Called(ctx, contestID, problemID, userID)
	return args.Bool(0), args.Error(1)
}

type MockViolationRepo struct {
	mock.Mock
}

func (m *MockViolationRepo) CreateUnlessDuplicate(ctx context.Context, v *entity.Violation, since time.Time) (*entity.Violation, bool, error) {
	args := m.Called(ctx, v, since)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entity.Violation), args.Bool(1), args.Error(2)
}

func (m *MockViolationRepo) GetByID(ctx context.Context, id uint) (*entity.Violation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Violation), args.Error(1)
}

func (m *MockViolationRepo) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockViolationRepo) List(ctx context.Context, filter repository.ViolationFilter) ([]entity.Violation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Violation), args.Error(1)
}

func (m *MockViolationRepo) ListByContest(ctx context.Context, contestID uint) ([]entity.Violation, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Violation), args.Error(1)
}

func (m *MockViolationRepo) Count(ctx context.Context, filter repository.ViolationFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockViolationRepo) ExistsForContest(ctx context.Context, contestID uint) (bool, error) {
	args := m.Called(ctx, contestID)
	return args.Bool(0), args.Error(1)
}

type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) GetByContestUser(ctx context.Context, contestID, userID uint) (*entity.Review, error) {
	args := m.Called(ctx, contestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepo) Upsert(ctx context.Context, review *entity.Review) (bool, error) {
	args := m.Called(ctx, review)
	return args.Bool(0), args.Error(1)
}

func (m *MockReviewRepo) ListByContest(ctx context.Context, contestID uint, limit, offset int) ([]entity.Review, int64, error) {
	args := m.Called(ctx, contestID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepo) AllByContest(ctx context.Context, contestID uint) ([]entity.Review, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepo) UserIDsWithReview(ctx context.Context, contestID uint) ([]uint, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

type MockRankRepo struct {
	mock.Mock
}

func (m *MockRankRepo) ListACMRows(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ACMRankRow), args.Error(1)
}

func (m *MockRankRepo) ListOIRows(ctx context.Context, contestID uint) ([]entity.OIRankRow, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OIRankRow), args.Error(1)
}

func (m *MockRankRepo) ReplaceACMRow(ctx context.Context, row *entity.ACMRankRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRankRepo) ReplaceOIRow(ctx context.Context, row *entity.OIRankRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockRankRepo) DeleteACMRow(ctx context.Context, contestID, userID uint) error {
	args := m.Called(ctx, contestID, userID)
	return args.Error(0)
}

func (m *MockRankRepo) DeleteOIRow(ctx context.Context, contestID, userID uint) error {
	args := m.Called(ctx, contestID, userID)
	return args.Error(0)
}

// MockRanker реализует Ranker
type MockRanker struct {
	mock.Mock
}

func (m *MockRanker) Ranking(ctx context.Context, contest *entity.Contest, force bool) (*ranking.Ranking, ranking.Source, error) {
	args := m.Called(ctx, contest, force)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*ranking.Ranking), args.Get(1).(ranking.Source), args.Error(2)
}

func (m *MockRanker) Invalidate(ctx context.Context, contestID uint) error {
	args := m.Called(ctx, contestID)
	return args.Error(0)
}

// ============================================================================
// Вспомогательные конструкторы
// ============================================================================

const (
	superAdminID = 900
	ownerAdminID = 901
	otherAdminID = 902
)

func uintPtr(v uint) *uint {
	return &v
}

func participant(id uint) *entity.User {
	return &entity.User{ID: id, Username: "participant", AdminType: entity.AdminTypeRegular}
}

func superAdmin() *entity.User {
	return &entity.User{ID: superAdminID, Username: "root", AdminType: entity.AdminTypeSuperAdmin}
}

func ownerAdmin() *entity.User {
	return &entity.User{ID: ownerAdminID, Username: "owner", AdminType: entity.AdminTypeAdmin}
}

func otherAdmin() *entity.User {
	return &entity.User{ID: otherAdminID, Username: "other", AdminType: entity.AdminTypeAdmin}
}

// runningContest возвращает идущий контест, созданный ownerAdmin
func runningContest(id uint, rule entity.RuleType) *entity.Contest {
	now := time.Now()
	return &entity.Contest{
		ID:           id,
		Title:        "Contest",
		RuleType:     rule,
		StartTime:    now.Add(-time.Hour),
		EndTime:      now.Add(time.Hour),
		CreatedByID:  ownerAdminID,
		Visible:      true,
		RealTimeRank: true,
	}
}
