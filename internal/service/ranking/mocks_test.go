package ranking

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
)

// ============================================================================
// Моки источников фактов
// ============================================================================

type MockRankSource struct {
	mock.Mock
}

func (m *MockRankSource) ListACMRows(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ACMRankRow), args.Error(1)
}

func (m *MockRankSource) ListOIRows(ctx context.Context, contestID uint) ([]entity.OIRankRow, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OIRankRow), args.Error(1)
}

type MockViolationSource struct {
	mock.Mock
}

func (m *MockViolationSource) ListByContest(ctx context.Context, contestID uint) ([]entity.Violation, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Violation), args.Error(1)
}

func (m *MockViolationSource) ExistsForContest(ctx context.Context, contestID uint) (bool, error) {
	args := m.Called(ctx, contestID)
	return args.Bool(0), args.Error(1)
}

type MockReviewSource struct {
	mock.Mock
}

func (m *MockReviewSource) UserIDsWithReview(ctx context.Context, contestID uint) ([]uint, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

var _ repository.CacheRepository = (*MockCacheRepo)(nil)

func (m *MockCacheRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

// MockRankCache реализует RankCache
type MockRankCache struct {
	mock.Mock
}

func (m *MockRankCache) Get(ctx context.Context, contestID uint) (*Ranking, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ranking), args.Error(1)
}

func (m *MockRankCache) Set(ctx context.Context, ranking *Ranking) error {
	args := m.Called(ctx, ranking)
	return args.Error(0)
}

func (m *MockRankCache) Invalidate(ctx context.Context, contestID uint) error {
	args := m.Called(ctx, contestID)
	return args.Error(0)
}

// ============================================================================
// Вспомогательные конструкторы
// ============================================================================

var testStart = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func acmContest(id uint, ended bool) *entity.Contest {
	c := &entity.Contest{ID: id, RuleType: entity.RuleTypeACM, StartTime: testStart, EndTime: testStart.Add(5 * time.Hour), Visible: true}
	if !ended {
		c.EndTime = time.Now().Add(24 * time.Hour)
	}
	return c
}

func oiContest(id uint) *entity.Contest {
	return &entity.Contest{ID: id, RuleType: entity.RuleTypeOI, StartTime: testStart, EndTime: time.Now().Add(24 * time.Hour), Visible: true}
}

func uintPtr(v uint) *uint {
	return &v
}

func violation(id, contestID, userID uint, problemID *uint) entity.Violation {
	return entity.Violation{ID: id, ContestID: contestID, UserID: userID, ProblemID: problemID, Kind: entity.ViolationTabSwitch}
}

func regularUser(id uint) *entity.User {
	return &entity.User{ID: id, Username: "user", AdminType: entity.AdminTypeRegular}
}
