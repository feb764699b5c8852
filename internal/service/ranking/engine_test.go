package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

type engineFixture struct {
	ranks      *MockRankSource
	violations *MockViolationSource
	reviews    *MockReviewSource
	engine     *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		ranks:      new(MockRankSource),
		violations: new(MockViolationSource),
		reviews:    new(MockReviewSource),
	}
	f.engine = NewEngine(NewAggregator(f.ranks), f.violations, f.reviews, nil)
	return f
}

func acmRow(userID uint, accepted int, totalTime int64, info entity.ACMSubmissionInfo) entity.ACMRankRow {
	return entity.ACMRankRow{
		ContestID:      1,
		UserID:         userID,
		AcceptedNumber: accepted,
		TotalTime:      totalTime,
		SubmissionInfo: info,
		User:           regularUser(userID),
	}
}

func oiRow(userID uint, score int) entity.OIRankRow {
	return entity.OIRankRow{ContestID: 2, UserID: userID, TotalScore: score, SubmissionInfo: entity.OISubmissionInfo{}, User: regularUser(userID)}
}

func userOrder(r *Ranking) []uint {
	ids := make([]uint, 0, len(r.Rows))
	for i := range r.Rows {
		ids = append(ids, r.Rows[i].UserID())
	}
	return ids
}

// ============================================================================
// ACM
// ============================================================================

func TestEngine_ACMExampleFromProblemStatement(t *testing.T) {
	// Решение задачи P на 1800-й секунде после двух неверных попыток + одно нарушение на P
	f := newEngineFixture()
	contest := acmContest(1, false)
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 1, 1800+2*1200, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1800 + 2*1200, ErrorNumber: 2}}),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{violation(1, 1, 1, uintPtr(10))}, nil)

	r, err := f.engine.Compute(context.Background(), contest)

	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	row := r.Rows[0]
	assert.Equal(t, int64(4800), row.ACM.SubmissionInfo[10].ACTime)
	assert.Equal(t, int64(4800), row.ACM.TotalTime)
	assert.Equal(t, 1, row.Annotation.ViolationCount)
	assert.Equal(t, int64(600), row.Annotation.TotalPenaltyTime)
	require.NotNil(t, row.Annotation.OriginalTotalTime)
	assert.Equal(t, int64(4200), *row.Annotation.OriginalTotalTime)
	assert.Equal(t, int64(4200), row.Annotation.OriginalACTimes[10])
	assert.False(t, r.ViolationFree)
	f.reviews.AssertNotCalled(t, "UserIDsWithReview", mock.Anything, mock.Anything)
}

func TestEngine_ACMNoViolationsMatchesBaseOrder(t *testing.T) {
	f := newEngineFixture()
	contest := acmContest(1, false)
	base := []entity.ACMRankRow{
		acmRow(1, 2, 5000, entity.ACMSubmissionInfo{}),
		acmRow(2, 3, 9000, entity.ACMSubmissionInfo{}),
		acmRow(3, 2, 4000, entity.ACMSubmissionInfo{}),
	}
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return(base, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{}, nil)

	r, err := f.engine.Compute(context.Background(), contest)

	require.NoError(t, err)
	assert.Equal(t, []uint{2, 3, 1}, userOrder(r), "Больше задач выше, при равенстве меньше времени")
	for i, row := range r.Rows {
		assert.Equal(t, i+1, row.Rank)
		assert.Zero(t, row.Annotation.ViolationCount)
		assert.Zero(t, row.Annotation.TotalPenaltyTime)
		assert.False(t, row.Annotation.ReviewPenaltyApplied)
	}
	assert.True(t, r.ViolationFree)
}

func TestEngine_ACMPenaltyChangesOrder(t *testing.T) {
	f := newEngineFixture()
	contest := acmContest(1, false)
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 3, 5000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
		acmRow(2, 3, 4900, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 900}}),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{violation(1, 1, 2, uintPtr(10))}, nil)

	r, err := f.engine.Compute(context.Background(), contest)

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, userOrder(r), "4900 + 600 > 5000, пользователь 2 опускается")
	assert.Equal(t, int64(5500), r.Rows[1].ACM.TotalTime)
}

func TestEngine_ACMMonotonicity(t *testing.T) {
	rows := func() []entity.ACMRankRow {
		return []entity.ACMRankRow{
			acmRow(1, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
			acmRow(2, 1, 2000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 2000}}),
		}
	}
	compute := func(vs []entity.Violation) *Ranking {
		f := newEngineFixture()
		f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return(rows(), nil)
		f.violations.On("ListByContest", mock.Anything, uint(1)).Return(vs, nil)
		r, err := f.engine.Compute(context.Background(), acmContest(1, false))
		require.NoError(t, err)
		return r
	}
	byUser := func(r *Ranking, id uint) *entity.ACMRankRow {
		for i := range r.Rows {
			if r.Rows[i].UserID() == id {
				return r.Rows[i].ACM
			}
		}
		t.Fatalf("user %d not found", id)
		return nil
	}

	before := compute([]entity.Violation{violation(1, 1, 1, uintPtr(10))})
	after := compute([]entity.Violation{violation(1, 1, 1, uintPtr(10)), violation(2, 1, 1, uintPtr(10))})

	assert.Equal(t, int64(600), byUser(after, 1).SubmissionInfo[10].ACTime-byUser(before, 1).SubmissionInfo[10].ACTime)
	assert.Equal(t, int64(600), byUser(after, 1).TotalTime-byUser(before, 1).TotalTime)
	assert.Equal(t, byUser(before, 2).TotalTime, byUser(after, 2).TotalTime, "Строки других пользователей не меняются")
}

func TestEngine_ACMGeneralViolationCountedWithoutTime(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{
		violation(1, 1, 1, nil),
		violation(2, 1, 1, uintPtr(30)), // задача не решена
	}, nil)

	r, err := f.engine.Compute(context.Background(), acmContest(1, false))

	require.NoError(t, err)
	assert.Equal(t, 2, r.Rows[0].Annotation.ViolationCount)
	assert.Equal(t, int64(1000), r.Rows[0].ACM.TotalTime)
}

func TestEngine_ACMReviewPenaltyAfterEnd(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
		acmRow(2, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{
		violation(1, 1, 1, uintPtr(10)),
		violation(2, 1, 1, uintPtr(10)),
	}, nil)
	f.reviews.On("UserIDsWithReview", mock.Anything, uint(1)).Return([]uint{2}, nil)

	r, err := f.engine.Compute(context.Background(), acmContest(1, true))

	require.NoError(t, err)
	assert.Equal(t, []uint{2, 1}, userOrder(r))
	noReview := r.Rows[1]
	assert.True(t, noReview.Annotation.ReviewPenaltyApplied)
	assert.Equal(t, int64(1000+2*600+3600), noReview.ACM.TotalTime, "3600 добавляется ровно один раз")
	assert.Equal(t, int64(1000+2*600), noReview.ACM.SubmissionInfo[10].ACTime, "Штраф за отзыв не относится к задаче")
	assert.False(t, r.Rows[0].Annotation.ReviewPenaltyApplied)
	assert.Equal(t, int64(1000), r.Rows[0].ACM.TotalTime)
}

func TestEngine_DoesNotMutateBaseRows(t *testing.T) {
	f := newEngineFixture()
	base := []entity.ACMRankRow{acmRow(1, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}})}
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return(base, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{violation(1, 1, 1, uintPtr(10))}, nil)

	_, err := f.engine.Compute(context.Background(), acmContest(1, false))

	require.NoError(t, err)
	assert.Equal(t, int64(1000), base[0].TotalTime)
	assert.Equal(t, int64(1000), base[0].SubmissionInfo[10].ACTime)
}

func TestEngine_Idempotent(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 2, 3000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}, 20: {IsAC: true, ACTime: 2000}}),
		acmRow(2, 2, 3100, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1100}, 20: {IsAC: true, ACTime: 2000}}),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{violation(1, 1, 1, uintPtr(20))}, nil)

	first, err := f.engine.Compute(context.Background(), acmContest(1, false))
	require.NoError(t, err)
	second, err := f.engine.Compute(context.Background(), acmContest(1, false))
	require.NoError(t, err)

	assert.Equal(t, userOrder(first), userOrder(second))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].ACM.TotalTime, second.Rows[i].ACM.TotalTime)
		assert.Equal(t, first.Rows[i].Annotation.TotalPenaltyTime, second.Rows[i].Annotation.TotalPenaltyTime)
	}
}

func TestEngine_PerRowFailureIsIsolated(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListACMRows", mock.Anything, uint(1)).Return([]entity.ACMRankRow{
		acmRow(1, 1, 1000, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 1000}}),
		acmRow(2, 1, 900, entity.ACMSubmissionInfo{10: {IsAC: true, ACTime: 900}}),
	}, nil)
	// Нарушение пользователя 2 ссылается на чужой контест: расчет его строки падает
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return([]entity.Violation{
		violation(1, 1, 1, uintPtr(10)),
		violation(2, 99, 2, uintPtr(10)),
	}, nil)

	r, err := f.engine.Compute(context.Background(), acmContest(1, false))

	require.NoError(t, err, "Ошибка одной строки не должна ронять весь рейтинг")
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []uint{2, 1}, userOrder(r))
	degraded := r.Rows[0]
	assert.True(t, degraded.Annotation.Degraded)
	assert.Zero(t, degraded.Annotation.TotalPenaltyTime)
	assert.Equal(t, int64(900), degraded.ACM.TotalTime, "Строка выдается без штрафа")
	assert.Equal(t, int64(1600), r.Rows[1].ACM.TotalTime)
}

func TestEngine_StoreErrorAbortsRequest(t *testing.T) {
	f := newEngineFixture()
	f.violations.On("ListByContest", mock.Anything, uint(1)).Return(nil, errors.New("db down"))

	_, err := f.engine.Compute(context.Background(), acmContest(1, false))

	assert.Error(t, err)
	f.ranks.AssertNotCalled(t, "ListACMRows", mock.Anything, mock.Anything)
}

func TestEngine_EmptyContest(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListOIRows", mock.Anything, uint(2)).Return([]entity.OIRankRow{}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(2)).Return([]entity.Violation{}, nil)

	r, err := f.engine.Compute(context.Background(), oiContest(2))

	require.NoError(t, err)
	assert.NotNil(t, r.Rows)
	assert.Empty(t, r.Rows)
}

// ============================================================================
// OI
// ============================================================================

func TestEngine_OIPenaltyAndFloor(t *testing.T) {
	f := newEngineFixture()
	f.ranks.On("ListOIRows", mock.Anything, uint(2)).Return([]entity.OIRankRow{
		oiRow(1, 5),
		oiRow(2, 200),
		oiRow(3, 195),
	}, nil)
	f.violations.On("ListByContest", mock.Anything, uint(2)).Return([]entity.Violation{
		violation(1, 2, 1, nil),
		violation(2, 2, 2, uintPtr(7)),
	}, nil)

	r, err := f.engine.Compute(context.Background(), oiContest(2))

	require.NoError(t, err)
	assert.Equal(t, []uint{3, 2, 1}, userOrder(r), "200 - 10 = 190 < 195")
	assert.Equal(t, 190, r.Rows[1].OI.TotalScore)
	assert.Equal(t, 0, r.Rows[2].OI.TotalScore, "Штраф не опускает балл ниже нуля")
	assert.Equal(t, 10, r.Rows[2].Annotation.PenaltyPoints)
	require.NotNil(t, r.Rows[2].Annotation.OriginalTotalScore)
	assert.Equal(t, 5, *r.Rows[2].Annotation.OriginalTotalScore)
	require.NotNil(t, r.Rows[2].Annotation.PenaltyBreakdown)
	f.reviews.AssertNotCalled(t, "UserIDsWithReview", mock.Anything, mock.Anything)
}

func TestPenaltyAnnotation_PublicStripsAdminFields(t *testing.T) {
	total := int64(100)
	score := 5
	a := PenaltyAnnotation{
		ViolationCount:     2,
		OriginalTotalTime:  &total,
		OriginalACTimes:    map[uint]int64{1: 100},
		OriginalTotalScore: &score,
		PenaltyBreakdown:   &PenaltyBreakdown{PenaltyPoints: 20},
	}

	p := a.Public()

	assert.Equal(t, 2, p.ViolationCount)
	assert.Nil(t, p.OriginalTotalTime)
	assert.Nil(t, p.OriginalACTimes)
	assert.Nil(t, p.OriginalTotalScore)
	assert.Nil(t, p.PenaltyBreakdown)
	assert.NotNil(t, a.OriginalTotalTime, "Исходная аннотация не меняется")
}
