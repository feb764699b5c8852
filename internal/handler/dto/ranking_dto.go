package dto

import (
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/service"
	"github.com/yourusername/contest-rank-api/internal/service/ranking"
)

// RankRowResponse - строка рейтинга в плоском виде для клиента.
// ACM заполняет accepted_number/total_time, OI заполняет total_score.
type RankRowResponse struct {
	Rank             int                       `json:"rank"`
	UserID           uint                      `json:"user_id"`
	Username         string                    `json:"username"`
	RealName         string                    `json:"real_name,omitempty"`
	SubmissionNumber int                       `json:"submission_number"`
	AcceptedNumber   *int                      `json:"accepted_number,omitempty"`
	TotalTime        *int64                    `json:"total_time,omitempty"`
	TotalScore       *int                      `json:"total_score,omitempty"`
	SubmissionInfo   interface{}               `json:"submission_info"`
	Annotation       ranking.PenaltyAnnotation `json:"annotation"`
}

// RankingResponse - страница рейтинга
type RankingResponse struct {
	ContestID  uint              `json:"contest_id"`
	RuleType   entity.RuleType   `json:"rule_type"`
	Results    []RankRowResponse `json:"results"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Source     ranking.Source    `json:"source"`
	ComputedAt time.Time         `json:"computed_at"`
}

// NewRankRowResponse разворачивает строку рейтинга
func NewRankRowResponse(row ranking.RankedRow) RankRowResponse {
	resp := RankRowResponse{Rank: row.Rank, UserID: row.UserID(), Annotation: row.Annotation}

	var user *entity.User
	switch {
	case row.ACM != nil:
		accepted, total := row.ACM.AcceptedNumber, row.ACM.TotalTime
		resp.SubmissionNumber = row.ACM.SubmissionNumber
		resp.AcceptedNumber = &accepted
		resp.TotalTime = &total
		resp.SubmissionInfo = row.ACM.SubmissionInfo
		user = row.ACM.User
	case row.OI != nil:
		score := row.OI.TotalScore
		resp.SubmissionNumber = row.OI.SubmissionNumber
		resp.TotalScore = &score
		resp.SubmissionInfo = row.OI.SubmissionInfo
		user = row.OI.User
	}
	if user != nil {
		resp.Username = user.Username
		resp.RealName = user.RealName
	}
	return resp
}

// NewRankingResponse создает DTO страницы рейтинга
func NewRankingResponse(page *service.RankingPage) *RankingResponse {
	results := make([]RankRowResponse, len(page.Rows))
	for i, row := range page.Rows {
		results[i] = NewRankRowResponse(row)
	}
	return &RankingResponse{
		ContestID:  page.ContestID,
		RuleType:   page.RuleType,
		Results:    results,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		Source:     page.Source,
		ComputedAt: page.ComputedAt,
	}
}
