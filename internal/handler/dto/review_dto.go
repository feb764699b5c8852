package dto

import (
	"time"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/service"
)

// SubmitReviewRequest - отзыв участника
type SubmitReviewRequest struct {
	Rating                int            `json:"rating" binding:"required,min=1,max=10"`
	CategoryRatings       map[string]int `json:"category_ratings"`
	ReviewText            string         `json:"review_text" binding:"max=5000"`
	HadTechnicalIssues    bool           `json:"had_technical_issues"`
	TechnicalIssuesDetail string         `json:"technical_issues_detail" binding:"max=2000"`
}

// ReviewResponse - отзыв в ответе клиенту
type ReviewResponse struct {
	ID                    uint                   `json:"id"`
	ContestID             uint                   `json:"contest_id"`
	UserID                uint                   `json:"user_id"`
	Username              string                 `json:"username,omitempty"`
	Rating                int                    `json:"rating"`
	CategoryRatings       entity.CategoryRatings `json:"category_ratings"`
	AverageCategoryRating float64                `json:"average_category_rating"`
	ReviewText            string                 `json:"review_text"`
	HadTechnicalIssues    bool                   `json:"had_technical_issues"`
	TechnicalIssuesDetail string                 `json:"technical_issues_detail,omitempty"`
	SubmittedAt           time.Time              `json:"submitted_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// ReviewListResponse - страница отзывов для администратора
type ReviewListResponse struct {
	Reviews            []ReviewResponse `json:"reviews"`
	Total              int64            `json:"total"`
	Page               int              `json:"page"`
	PageSize           int              `json:"page_size"`
	AverageRating      float64          `json:"average_rating"`
	RatingDistribution map[int]int      `json:"rating_distribution"`
}

// NewReviewResponse создает DTO отзыва
func NewReviewResponse(r *entity.Review) *ReviewResponse {
	resp := &ReviewResponse{
		ID:                    r.ID,
		ContestID:             r.ContestID,
		UserID:                r.UserID,
		Rating:                r.Rating,
		CategoryRatings:       r.CategoryRatings,
		AverageCategoryRating: r.AverageCategoryRating(),
		ReviewText:            r.ReviewText,
		HadTechnicalIssues:    r.HadTechnicalIssues,
		TechnicalIssuesDetail: r.TechnicalIssuesDetail,
		SubmittedAt:           r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
	if r.User != nil {
		resp.Username = r.User.Username
	}
	return resp
}

// NewReviewListResponse создает DTO страницы отзывов
func NewReviewListResponse(list *service.ReviewList) *ReviewListResponse {
	reviews := make([]ReviewResponse, len(list.Reviews))
	for i := range list.Reviews {
		reviews[i] = *NewReviewResponse(&list.Reviews[i])
	}
	return &ReviewListResponse{
		Reviews:            reviews,
		Total:              list.Total,
		Page:               list.Page,
		PageSize:           list.PageSize,
		AverageRating:      list.AverageRating,
		RatingDistribution: list.Distribution,
	}
}
