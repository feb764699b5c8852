package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-rank-api/internal/middleware"
)

// Handlers объединяет обработчики API
type Handlers struct {
	Ranking    *RankingHandler
	Violations *ViolationHandler
	Reviews    *ReviewHandler
}

// RouteLimits - ограничители частоты запросов. Nil означает отсутствие лимита.
type RouteLimits struct {
	// ViolationReports стоит на отчетах о нарушениях
	ViolationReports gin.HandlerFunc
	// PublicReads стоит на маршрутах, доступных без аутентификации
	PublicReads gin.HandlerFunc
}

func withLimit(limit gin.HandlerFunc, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	if limit == nil {
		return handlers
	}
	return append([]gin.HandlerFunc{limit}, handlers...)
}

// RegisterRoutes настраивает маршруты /api
func RegisterRoutes(router *gin.Engine, h Handlers, auth *middleware.AuthMiddleware, limits RouteLimits) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	contest := api.Group("/contests/:id", middleware.ExtractUintParam("id", "contestID"))
	{
		// Рейтинг доступен анонимно, если это позволяют правила контеста
		contest.GET("/ranking", withLimit(limits.PublicReads, auth.OptionalAuth(), h.Ranking.GetRanking)...)
		contest.GET("/reviews/stats", withLimit(limits.PublicReads, h.Reviews.Stats)...)

		authed := contest.Group("", auth.RequireAuth())
		{
			authed.POST("/violations", withLimit(limits.ViolationReports, h.Violations.Report)...)

			authed.GET("/violations", h.Violations.List)
			authed.GET("/violations/details", h.Violations.Details)
			authed.GET("/violations/user", h.Violations.UserViolations)
			authed.GET("/anti-cheat/status", h.Violations.Status)
			authed.GET("/anti-cheat/problems/:problem_id", h.Violations.ProblemStatus)

			authed.POST("/review", h.Reviews.Submit)
			authed.GET("/review", h.Reviews.Get)
		}

		admin := contest.Group("", auth.RequireAuth(), auth.AdminOnly())
		{
			admin.GET("/ranking/export", h.Ranking.ExportRanking)
			admin.POST("/ranking/recalculate", h.Ranking.Recalculate)
			admin.GET("/reviews", h.Reviews.List)
		}
	}

	api.DELETE("/violations/:id",
		auth.RequireAuth(), auth.AdminOnly(),
		middleware.ExtractUintParam("id", "violationID"),
		h.Violations.Delete,
	)
}
