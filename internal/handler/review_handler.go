package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/handler/dto"
	"github.com/yourusername/contest-rank-api/internal/middleware"
	"github.com/yourusername/contest-rank-api/internal/service"
)

// ReviewManager - операции с отзывами, нужные обработчику
type ReviewManager interface {
	Upsert(ctx context.Context, in service.ReviewInput) (*entity.Review, bool, error)
	Get(ctx context.Context, contestID, userID uint) (*entity.Review, error)
	ListForAdmin(ctx context.Context, callerID, contestID uint, page, pageSize int) (*service.ReviewList, error)
	Stats(ctx context.Context, contestID uint) (*service.ReviewStats, error)
}

// ReviewHandler обрабатывает отзывы о контесте
type ReviewHandler struct {
	reviews ReviewManager
	logger  *zap.Logger
}

// NewReviewHandler создает обработчик отзывов
func NewReviewHandler(reviews ReviewManager, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger.Named("review_handler")}
}

// Submit создает или обновляет отзыв caller
// POST /api/contests/:id/review
func (h *ReviewHandler) Submit(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	review, created, err := h.reviews.Upsert(c.Request.Context(), service.ReviewInput{
		ContestID:             contestID,
		UserID:                middleware.UserIDFromContext(c),
		Rating:                req.Rating,
		CategoryRatings:       req.CategoryRatings,
		ReviewText:            req.ReviewText,
		HadTechnicalIssues:    req.HadTechnicalIssues,
		TechnicalIssuesDetail: req.TechnicalIssuesDetail,
		IPAddress:             c.ClientIP(),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewReviewResponse(review))
}

// Get возвращает отзыв caller; review=null, если его нет
// GET /api/contests/:id/review
func (h *ReviewHandler) Get(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	review, err := h.reviews.Get(c.Request.Context(), contestID, middleware.UserIDFromContext(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if review == nil {
		c.JSON(http.StatusOK, gin.H{"review": nil, "has_review": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": dto.NewReviewResponse(review), "has_review": true})
}

// List возвращает страницу отзывов для администратора
// GET /api/contests/:id/reviews?page=&page_size=
func (h *ReviewHandler) List(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	page, pageSize := parsePagination(c)

	list, err := h.reviews.ListForAdmin(c.Request.Context(), middleware.UserIDFromContext(c), contestID, page, pageSize)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReviewListResponse(list))
}

// Stats возвращает публичную статистику отзывов
// GET /api/contests/:id/reviews/stats
func (h *ReviewHandler) Stats(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	stats, err := h.reviews.Stats(c.Request.Context(), contestID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
