package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

type rankingServiceFixture struct {
	contests *MockContestRepo
	users    *MockUserRepo
	problems *MockProblemRepo
	ranker   *MockRanker
	svc      *RankingService
}

func newRankingServiceFixture() *rankingServiceFixture {
	f := &rankingServiceFixture{
		contests: new(MockContestRepo),
		users:    new(MockUserRepo),
		problems: new(MockProblemRepo),
		ranker:   new(MockRanker),
	}
	f.svc = NewRankingService(f.contests, f.users, f.problems, f.ranker, zap.NewNop())
	return f
}

// acmRanking строит рейтинг из n строк с админскими полями аннотации
func acmRanking(contestID uint, n int) *ranking.Ranking {
	r := &ranking.Ranking{ContestID: contestID, RuleType: entity.RuleTypeACM, ComputedAt: time.Now()}
	for i := 0; i < n; i++ {
		original := int64(1000 + i)
		r.Rows = append(r.Rows, ranking.RankedRow{
			Rank: i + 1,
			ACM:  &entity.ACMRankRow{ContestID: contestID, UserID: uint(i + 1), TotalTime: original},
			Annotation: ranking.PenaltyAnnotation{
				OriginalTotalTime: &original,
				OriginalACTimes:   map[uint]int64{1: original},
			},
		})
	}
	return r
}

func TestRankingService_GetRanking_PaginatesAndStripsAdminFields(t *testing.T) {
	f := newRankingServiceFixture()
	contest := runningContest(1, entity.RuleTypeACM)
	f.users.On("GetByID", mock.Anything, uint(5)).Return(participant(5), nil)
	f.contests.On("GetByID", mock.Anything, uint(1)).Return(contest, nil)
	f.ranker.On("Ranking", mock.Anything, contest, false).Return(acmRanking(1, 25), ranking.SourceCache, nil)

	page, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, CallerID: 5, Page: 3, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	require.Len(t, page.Rows, 5, "Третья страница содержит остаток")
	assert.Equal(t, 21, page.Rows[0].Rank)
	assert.Equal(t, ranking.SourceCache, page.Source)
	assert.False(t, page.IsAdmin)
	for _, row := range page.Rows {
		assert.Nil(t, row.Annotation.OriginalTotalTime, "Исходное время видно только администратору")
		assert.Nil(t, row.Annotation.OriginalACTimes)
	}
}

func TestRankingService_GetRanking_PageBeyondEnd(t *testing.T) {
	tests := []struct {
		name string
		page int
	}{
		{"следующая за последней", 4},
		{"переполнение смещения", math.MaxInt/3 + 2},
		{"максимальный int", math.MaxInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRankingServiceFixture()
			contest := runningContest(1, entity.RuleTypeACM)
			f.contests.On("GetByID", mock.Anything, uint(1)).Return(contest, nil)
			f.ranker.On("Ranking", mock.Anything, contest, false).Return(acmRanking(1, 25), ranking.SourceFresh, nil)

			page, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, Page: tt.page, PageSize: 3})

			require.NoError(t, err)
			assert.Empty(t, page.Rows)
			assert.Equal(t, 25, page.Total)
		})
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, pageOffset(1, 10))
	assert.Equal(t, 20, pageOffset(3, 10))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt, 100))
	assert.Equal(t, math.MaxInt, pageOffset(math.MaxInt/3+2, 3))
}

func TestRankingService_GetRanking_AdminSeesOriginals(t *testing.T) {
	f := newRankingServiceFixture()
	contest := runningContest(1, entity.RuleTypeACM)
	f.users.On("GetByID", mock.Anything, uint(ownerAdminID)).Return(ownerAdmin(), nil)
	f.contests.On("GetByID", mock.Anything, uint(1)).Return(contest, nil)
	f.ranker.On("Ranking", mock.Anything, contest, true).Return(acmRanking(1, 2), ranking.SourceForced, nil)

	page, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, CallerID: ownerAdminID, ForceRefresh: true})

	require.NoError(t, err)
	assert.True(t, page.IsAdmin)
	assert.Equal(t, ranking.SourceForced, page.Source)
	require.NotNil(t, page.Rows[0].Annotation.OriginalTotalTime)
	assert.Equal(t, DefaultPageSize, page.PageSize)
}

func TestRankingService_GetRanking_ForceIgnoredForNonAdmin(t *testing.T) {
	tests := []struct {
		name   string
		caller *entity.User
	}{
		{"участник", participant(5)},
		{"администратор чужого контеста", otherAdmin()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRankingServiceFixture()
			contest := runningContest(1, entity.RuleTypeACM)
			f.users.On("GetByID", mock.Anything, tt.caller.ID).Return(tt.caller, nil)
			f.contests.On("GetByID", mock.Anything, uint(1)).Return(contest, nil)
			f.ranker.On("Ranking", mock.Anything, contest, false).Return(acmRanking(1, 1), ranking.SourceFresh, nil)

			_, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, CallerID: tt.caller.ID, ForceRefresh: true})

			require.NoError(t, err)
			f.ranker.AssertCalled(t, "Ranking", mock.Anything, contest, false)
		})
	}
}

func TestRankingService_GetRanking_AccessPolicy(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		contest *entity.Contest
		caller  *entity.User
		wantErr error
	}{
		{
			name:    "скрытый контест для участника",
			contest: &entity.Contest{ID: 1, RuleType: entity.RuleTypeACM, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), CreatedByID: ownerAdminID},
			caller:  participant(5),
			wantErr: apperrors.ErrNotFound,
		},
		{
			name:    "контест еще не начался",
			contest: &entity.Contest{ID: 1, RuleType: entity.RuleTypeACM, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour), Visible: true, CreatedByID: ownerAdminID},
			caller:  participant(5),
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "OI без real_time_rank до окончания",
			contest: &entity.Contest{ID: 1, RuleType: entity.RuleTypeOI, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), Visible: true, CreatedByID: ownerAdminID},
			caller:  participant(5),
			wantErr: apperrors.ErrForbidden,
		},
		{
			name:    "анонимный запрос к скрытому контесту",
			contest: &entity.Contest{ID: 1, RuleType: entity.RuleTypeACM, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), CreatedByID: ownerAdminID},
			caller:  nil,
			wantErr: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRankingServiceFixture()
			callerID := uint(0)
			if tt.caller != nil {
				callerID = tt.caller.ID
				f.users.On("GetByID", mock.Anything, callerID).Return(tt.caller, nil)
			}
			f.contests.On("GetByID", mock.Anything, uint(1)).Return(tt.contest, nil)

			_, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, CallerID: callerID})

			assert.ErrorIs(t, err, tt.wantErr)
			f.ranker.AssertNotCalled(t, "Ranking", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRankingService_GetRanking_OIEndedIsPublic(t *testing.T) {
	f := newRankingServiceFixture()
	now := time.Now()
	contest := &entity.Contest{ID: 2, RuleType: entity.RuleTypeOI, StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-time.Hour), Visible: true}
	f.contests.On("GetByID", mock.Anything, uint(2)).Return(contest, nil)
	f.ranker.On("Ranking", mock.Anything, contest, false).Return(&ranking.Ranking{ContestID: 2, RuleType: entity.RuleTypeOI}, ranking.SourceFresh, nil)

	page, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 2})

	require.NoError(t, err)
	assert.NotNil(t, page.Rows)
	assert.Zero(t, page.Total)
}

func TestRankingService_GetRanking_UnknownCaller(t *testing.T) {
	f := newRankingServiceFixture()
	f.users.On("GetByID", mock.Anything, uint(77)).Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.GetRanking(context.Background(), RankingQuery{ContestID: 1, CallerID: 77})

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRankingService_ExportRanking(t *testing.T) {
	t.Run("администратор получает полный рейтинг и задачи", func(t *testing.T) {
		f := newRankingServiceFixture()
		contest := runningContest(1, entity.RuleTypeACM)
		problems := []entity.Problem{{ID: 10, DisplayID: "A"}, {ID: 11, DisplayID: "B"}}
		f.users.On("GetByID", mock.Anything, uint(superAdminID)).Return(superAdmin(), nil)
		f.contests.On("GetByID", mock.Anything, uint(1)).Return(contest, nil)
		f.ranker.On("Ranking", mock.Anything, contest, false).Return(acmRanking(1, 30), ranking.SourceFresh, nil)
		f.problems.On("ListByContest", mock.Anything, uint(1)).Return(problems, nil)

		export, err := f.svc.ExportRanking(context.Background(), 1, superAdminID)

		require.NoError(t, err)
		assert.Len(t, export.Ranking.Rows, 30, "Экспорт не пагинируется")
		assert.Equal(t, problems, export.Problems)
	})

	t.Run("участнику запрещено", func(t *testing.T) {
		f := newRankingServiceFixture()
		f.users.On("GetByID", mock.Anything, uint(5)).Return(participant(5), nil)
		f.contests.On("GetByID", mock.Anything, uint(1)).Return(runningContest(1, entity.RuleTypeACM), nil)

		_, err := f.svc.ExportRanking(context.Background(), 1, 5)

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
