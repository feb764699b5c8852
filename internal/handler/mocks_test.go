package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/service"
)

type MockRankingReader struct {
	mock.Mock
}

func (m *MockRankingReader) GetRanking(ctx context.Context, q service.RankingQuery) (*service.RankingPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RankingPage), args.Error(1)
}

func (m *MockRankingReader) ExportRanking(ctx context.Context, contestID, callerID uint) (*service.RankingExport, error) {
	args := m.Called(ctx, contestID, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RankingExport), args.Error(1)
}

type MockRankRecalculator struct {
	mock.Mock
}

func (m *MockRankRecalculator) RecalculateAs(ctx context.Context, callerID, contestID uint, opts service.RecalculateOptions) (*service.RecalculationReport, error) {
	args := m.Called(ctx, callerID, contestID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RecalculationReport), args.Error(1)
}

type MockViolationManager struct {
	mock.Mock
}

func (m *MockViolationManager) Report(ctx context.Context, in service.ReportInput) (*service.ReportResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportResult), args.Error(1)
}

func (m *MockViolationManager) List(ctx context.Context, callerID, contestID uint, userID *uint) ([]entity.Violation, error) {
	args := m.Called(ctx, callerID, contestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Violation), args.Error(1)
}

func (m *MockViolationManager) Details(ctx context.Context, callerID, contestID uint, userID *uint) (*service.ViolationDetails, error) {
	args := m.Called(ctx, callerID, contestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ViolationDetails), args.Error(1)
}

func (m *MockViolationManager) UserViolations(ctx context.Context, callerID, contestID uint, userID, problemID *uint) (*service.UserProblemViolations, error) {
	args := m.Called(ctx, callerID, contestID, userID, problemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UserProblemViolations), args.Error(1)
}

func (m *MockViolationManager) Status(ctx context.Context, callerID, contestID uint) (*service.AntiCheatStatus, error) {
	args := m.Called(ctx, callerID, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AntiCheatStatus), args.Error(1)
}

func (m *MockViolationManager) ProblemStatus(ctx context.Context, callerID, contestID uint, problemDisplayID string) (*service.ProblemAntiCheatStatus, error) {
	args := m.Called(ctx, callerID, contestID, problemDisplayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProblemAntiCheatStatus), args.Error(1)
}

func (m *MockViolationManager) Delete(ctx context.Context, callerID, violationID uint) error {
	args := m.Called(ctx, callerID, violationID)
	return args.Error(0)
}

type MockReviewManager struct {
	mock.Mock
}

func (m *MockReviewManager) Upsert(ctx context.Context, in service.ReviewInput) (*entity.Review, bool, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*entity.Review), args.Bool(1), args.Error(2)
}

func (m *MockReviewManager) Get(ctx context.Context, contestID, userID uint) (*entity.Review, error) {
	args := m.Called(ctx, contestID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewManager) ListForAdmin(ctx context.Context, callerID, contestID uint, page, pageSize int) (*service.ReviewList, error) {
	args := m.Called(ctx, callerID, contestID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewList), args.Error(1)
}

func (m *MockReviewManager) Stats(ctx context.Context, contestID uint) (*service.ReviewStats, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewStats), args.Error(1)
}
