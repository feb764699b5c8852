package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/handler/dto"
	"github.com/yourusername/contest-rank-api/internal/middleware"
	"github.com/yourusername/contest-rank-api/internal/service"
)

// RankingReader - операции чтения рейтинга, нужные обработчику
type RankingReader interface {
	GetRanking(ctx context.Context, q service.RankingQuery) (*service.RankingPage, error)
	ExportRanking(ctx context.Context, contestID, callerID uint) (*service.RankingExport, error)
}

// RankRecalculator запускает полный пересчет от имени администратора
type RankRecalculator interface {
	RecalculateAs(ctx context.Context, callerID, contestID uint, opts service.RecalculateOptions) (*service.RecalculationReport, error)
}

// RankingHandler обрабатывает запросы рейтинга контеста
type RankingHandler struct {
	rankings     RankingReader
	recalculator RankRecalculator
	logger       *zap.Logger
}

// NewRankingHandler создает обработчик рейтинга
func NewRankingHandler(rankings RankingReader, recalculator RankRecalculator, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{
		rankings:     rankings,
		recalculator: recalculator,
		logger:       logger.Named("ranking_handler"),
	}
}

// GetRanking возвращает страницу рейтинга
// GET /api/contests/:id/ranking?page=&page_size=&force_refresh=1
func (h *RankingHandler) GetRanking(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	page, pageSize := parsePagination(c)

	result, err := h.rankings.GetRanking(c.Request.Context(), service.RankingQuery{
		ContestID:    contestID,
		CallerID:     middleware.UserIDFromContext(c),
		Page:         page,
		PageSize:     pageSize,
		ForceRefresh: queryBool(c, "force_refresh"),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRankingResponse(result))
}

// ExportRanking выгружает полный рейтинг в CSV или Excel
// GET /api/contests/:id/ranking/export?format=csv|xlsx
func (h *RankingHandler) ExportRanking(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	export, err := h.rankings.ExportRanking(c.Request.Context(), contestID, middleware.UserIDFromContext(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	table := buildRankingTable(export)
	filename := fmt.Sprintf("contest_%d_ranking_%s", contestID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, table, filename)
	default:
		h.exportCSV(c, table, filename)
	}
}

// Recalculate пересобирает сохраненные строки рейтинга
// POST /api/contests/:id/ranking/recalculate?force=1&dry_run=1
func (h *RankingHandler) Recalculate(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	report, err := h.recalculator.RecalculateAs(c.Request.Context(), middleware.UserIDFromContext(c), contestID, service.RecalculateOptions{
		Force:  queryBool(c, "force"),
		DryRun: queryBool(c, "dry_run"),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
