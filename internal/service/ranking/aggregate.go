package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
)

// RankSource - источник сохраненных строк рейтинга
type RankSource interface {
	ListACMRows(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error)
	ListOIRows(ctx context.Context, contestID uint) ([]entity.OIRankRow, error)
}

// Aggregator выдает базовый (без штрафов) снимок рейтинга
type Aggregator struct {
	ranks RankSource
}

// NewAggregator создает агрегатор поверх хранилища строк рейтинга
func NewAggregator(ranks RankSource) *Aggregator {
	return &Aggregator{ranks: ranks}
}

// ACMSnapshot возвращает копии сохраненных ACM-строк допущенных пользователей.
// Накопленные значения (включая штраф за неверные попытки) не пересчитываются.
func (a *Aggregator) ACMSnapshot(ctx context.Context, contestID uint) ([]entity.ACMRankRow, error) {
	rows, err := a.ranks.ListACMRows(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("load acm rank rows for contest %d: %w", contestID, err)
	}
	out := make([]entity.ACMRankRow, 0, len(rows))
	for _, row := range rows {
		if row.User != nil && !row.User.IsRankEligible() {
			continue
		}
		out = append(out, row.Clone())
	}
	return out, nil
}

// OISnapshot возвращает копии сохраненных OI-строк допущенных пользователей
func (a *Aggregator) OISnapshot(ctx context.Context, contestID uint) ([]entity.OIRankRow, error) {
	rows, err := a.ranks.ListOIRows(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("load oi rank rows for contest %d: %w", contestID, err)
	}
	out := make([]entity.OIRankRow, 0, len(rows))
	for _, row := range rows {
		if row.User != nil && !row.User.IsRankEligible() {
			continue
		}
		out = append(out, row.Clone())
	}
	return out, nil
}

// sortSubmissions упорядочивает посылки по времени создания, при равенстве по ID
func sortSubmissions(subs []entity.Submission) []entity.Submission {
	sorted := make([]entity.Submission, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// elapsedSeconds - целое число секунд от начала контеста, не меньше нуля
func elapsedSeconds(start, at time.Time) int64 {
	d := at.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// RebuildACMRows пересобирает ACM-строки всех пользователей с посылками с нуля.
//
// Для каждой задачи посылки пользователя проходятся по времени; первая принятая
// фиксирует ac_time = (время посылки - начало контеста) + неверные попытки до нее * 20 минут.
// Посылки после первого AC учитываются только в submission_number.
// is_first_ac получает пользователь с самым ранним AC по задаче во всем контесте.
func RebuildACMRows(contest *entity.Contest, submissions []entity.Submission) map[uint]entity.ACMRankRow {
	rows := make(map[uint]entity.ACMRankRow)
	firstAC := make(map[uint]entity.Submission) // problemID -> самая ранняя принятая посылка

	for _, sub := range sortSubmissions(submissions) {
		row, ok := rows[sub.UserID]
		if !ok {
			row = entity.ACMRankRow{
				ContestID:      contest.ID,
				UserID:         sub.UserID,
				SubmissionInfo: entity.ACMSubmissionInfo{},
			}
		}
		row.SubmissionNumber++

		info := row.SubmissionInfo[sub.ProblemID]
		if !info.IsAC {
			if sub.IsAccepted() {
				info.IsAC = true
				info.ACTime = elapsedSeconds(contest.StartTime, sub.CreatedAt) +
					int64(info.ErrorNumber)*entity.WrongAttemptPenaltySeconds
				row.AcceptedNumber++
				row.TotalTime += info.ACTime
				if _, seen := firstAC[sub.ProblemID]; !seen {
					firstAC[sub.ProblemID] = sub
				}
			} else {
				info.ErrorNumber++
			}
			row.SubmissionInfo[sub.ProblemID] = info
		}
		rows[sub.UserID] = row
	}

	for problemID, sub := range firstAC {
		row := rows[sub.UserID]
		info := row.SubmissionInfo[problemID]
		info.IsFirstAC = true
		row.SubmissionInfo[problemID] = info
	}

	return rows
}

// RebuildOIRows пересобирает OI-строки: по каждой задаче берется лучшая посылка
// (при равном балле - более ранняя), баллы суммируются.
func RebuildOIRows(contest *entity.Contest, submissions []entity.Submission) map[uint]entity.OIRankRow {
	rows := make(map[uint]entity.OIRankRow)

	for _, sub := range sortSubmissions(submissions) {
		row, ok := rows[sub.UserID]
		if !ok {
			row = entity.OIRankRow{
				ContestID:      contest.ID,
				UserID:         sub.UserID,
				SubmissionInfo: entity.OISubmissionInfo{},
			}
		}
		row.SubmissionNumber++

		// Посылки идут по времени, поэтому строгое сравнение оставляет более раннюю при равенстве
		best, seen := row.SubmissionInfo[sub.ProblemID]
		if !seen || sub.Score > best {
			row.SubmissionInfo[sub.ProblemID] = sub.Score
		}
		rows[sub.UserID] = row
	}

	for userID, row := range rows {
		total := 0
		for _, score := range row.SubmissionInfo {
			total += score
		}
		row.TotalScore = total
		rows[userID] = row
	}

	return rows
}
