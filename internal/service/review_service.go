package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// ReviewService управляет отзывами участников о контесте
type ReviewService struct {
	access      contestAccess
	reviews     repository.ReviewRepository
	invalidator RankInvalidator
	logger      *zap.Logger
}

// NewReviewService создает сервис отзывов
func NewReviewService(
	contests repository.ContestRepository,
	users repository.UserRepository,
	reviews repository.ReviewRepository,
	invalidator RankInvalidator,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		access:      contestAccess{contests: contests, users: users},
		reviews:     reviews,
		invalidator: invalidator,
		logger:      logger.Named("review_service"),
	}
}

// ReviewInput - отзыв, присланный участником
type ReviewInput struct {
	ContestID             uint
	UserID                uint
	Rating                int
	CategoryRatings       map[string]int
	ReviewText            string
	HadTechnicalIssues    bool
	TechnicalIssuesDetail string
	IPAddress             string
}

func validateReview(in ReviewInput) error {
	if !entity.IsValidRating(in.Rating) {
		return validationError("rating must be between %d and %d", entity.MinReviewRating, entity.MaxReviewRating)
	}
	known := make(map[string]bool, len(entity.ReviewCategories))
	for _, c := range entity.ReviewCategories {
		known[c] = true
	}
	for category, rating := range in.CategoryRatings {
		if !known[category] {
			return validationError("unknown rating category %q", category)
		}
		if !entity.IsValidRating(rating) {
			return validationError("rating for %q must be between %d and %d", category, entity.MinReviewRating, entity.MaxReviewRating)
		}
	}
	return nil
}

// Upsert создает или обновляет отзыв пользователя о контесте.
// Наличие отзыва влияет на штраф ACM, поэтому кеш рейтинга сбрасывается.
func (s *ReviewService) Upsert(ctx context.Context, in ReviewInput) (*entity.Review, bool, error) {
	if err := validateReview(in); err != nil {
		return nil, false, err
	}
	contest, err := s.access.contests.GetVisibleByID(ctx, in.ContestID)
	if err != nil {
		return nil, false, err
	}

	review := &entity.Review{
		ContestID:             contest.ID,
		UserID:                in.UserID,
		Rating:                in.Rating,
		CategoryRatings:       entity.CategoryRatings(in.CategoryRatings),
		ReviewText:            in.ReviewText,
		HadTechnicalIssues:    in.HadTechnicalIssues,
		TechnicalIssuesDetail: in.TechnicalIssuesDetail,
		IPAddress:             in.IPAddress,
	}
	if review.CategoryRatings == nil {
		review.CategoryRatings = entity.CategoryRatings{}
	}

	created, err := s.reviews.Upsert(ctx, review)
	if errors.Is(err, apperrors.ErrConflict) {
		// Параллельный первый отзыв уже вставлен, повторяем как обновление
		created, err = s.reviews.Upsert(ctx, review)
	}
	if err != nil {
		return nil, false, err
	}
	invalidateRank(ctx, s.invalidator, s.logger, contest.ID)

	s.logger.Info("Review saved",
		zap.Uint("contest_id", contest.ID),
		zap.Uint("user_id", in.UserID),
		zap.Int("rating", in.Rating),
		zap.Bool("created", created),
	)
	return review, created, nil
}

// Get возвращает отзыв пользователя или nil, если его нет
func (s *ReviewService) Get(ctx context.Context, contestID, userID uint) (*entity.Review, error) {
	review, err := s.reviews.GetByContestUser(ctx, contestID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return review, nil
}

// ReviewList - страница отзывов для администратора
type ReviewList struct {
	Reviews       []entity.Review `json:"reviews"`
	Total         int64           `json:"total"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
	AverageRating float64         `json:"average_rating"`
	Distribution  map[int]int     `json:"rating_distribution"`
}

// ListForAdmin возвращает страницу отзывов, среднюю оценку и распределение по оценкам
func (s *ReviewService) ListForAdmin(ctx context.Context, callerID, contestID uint, page, pageSize int) (*ReviewList, error) {
	caller, err := s.access.caller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	contest, isAdmin, err := s.access.contest(ctx, contestID, caller)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apperrors.ErrForbidden
	}

	page, pageSize = normalizePage(page, pageSize)
	reviews, total, err := s.reviews.ListByContest(ctx, contest.ID, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, err
	}
	all, err := s.reviews.AllByContest(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	dist := make(map[int]int, entity.MaxReviewRating)
	for r := entity.MinReviewRating; r <= entity.MaxReviewRating; r++ {
		dist[r] = 0
	}
	sum := 0
	for _, r := range all {
		dist[r.Rating]++
		sum += r.Rating
	}
	avg := 0.0
	if len(all) > 0 {
		avg = round2(float64(sum) / float64(len(all)))
	}

	return &ReviewList{
		Reviews:       reviews,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		AverageRating: avg,
		Distribution:  dist,
	}, nil
}

// RatingBucket - число отзывов с данной оценкой и их доля
type RatingBucket struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ReviewStats - публичная статистика отзывов контеста
type ReviewStats struct {
	TotalReviews         int                `json:"total_reviews"`
	AverageRating        float64            `json:"average_rating"`
	Distribution         []RatingBucket     `json:"rating_distribution"`
	CategoryAverages     map[string]float64 `json:"category_averages"`
	TechnicalIssuesCount int                `json:"technical_issues_count"`
}

// Stats считает публичную статистику отзывов
func (s *ReviewService) Stats(ctx context.Context, contestID uint) (*ReviewStats, error) {
	contest, err := s.access.contests.GetVisibleByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.AllByContest(ctx, contest.ID)
	if err != nil {
		return nil, err
	}
	return buildReviewStats(reviews), nil
}

func buildReviewStats(reviews []entity.Review) *ReviewStats {
	stats := &ReviewStats{
		TotalReviews:     len(reviews),
		Distribution:     make([]RatingBucket, 0, entity.MaxReviewRating),
		CategoryAverages: make(map[string]float64, len(entity.ReviewCategories)),
	}

	counts := make(map[int]int)
	categorySum := make(map[string]int)
	categoryCnt := make(map[string]int)
	sum := 0
	for _, r := range reviews {
		counts[r.Rating]++
		sum += r.Rating
		if r.HadTechnicalIssues {
			stats.TechnicalIssuesCount++
		}
		for category, rating := range r.CategoryRatings {
			categorySum[category] += rating
			categoryCnt[category]++
		}
	}

	if len(reviews) > 0 {
		stats.AverageRating = round2(float64(sum) / float64(len(reviews)))
	}
	for rating := entity.MinReviewRating; rating <= entity.MaxReviewRating; rating++ {
		b := RatingBucket{Rating: rating, Count: counts[rating]}
		if len(reviews) > 0 {
			b.Percentage = math.Round(float64(b.Count)*1000/float64(len(reviews))) / 10
		}
		stats.Distribution = append(stats.Distribution, b)
	}
	for _, category := range entity.ReviewCategories {
		if n := categoryCnt[category]; n > 0 {
			stats.CategoryAverages[category] = round2(float64(categorySum[category]) / float64(n))
		} else {
			stats.CategoryAverages[category] = 0
		}
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
