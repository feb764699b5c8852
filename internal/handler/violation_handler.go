package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/internal/handler/dto"
	"github.com/yourusername/contest-rank-api/internal/middleware"
	"github.com/yourusername/contest-rank-api/internal/service"
)

const maxUserAgentLength = 500

// ViolationManager - операции античита, нужные обработчику
type ViolationManager interface {
	Report(ctx context.Context, in service.ReportInput) (*service.ReportResult, error)
	List(ctx context.Context, callerID, contestID uint, userID *uint) ([]entity.Violation, error)
	Details(ctx context.Context, callerID, contestID uint, userID *uint) (*service.ViolationDetails, error)
	UserViolations(ctx context.Context, callerID, contestID uint, userID, problemID *uint) (*service.UserProblemViolations, error)
	Status(ctx context.Context, callerID, contestID uint) (*service.AntiCheatStatus, error)
	ProblemStatus(ctx context.Context, callerID, contestID uint, problemDisplayID string) (*service.ProblemAntiCheatStatus, error)
	Delete(ctx context.Context, callerID, violationID uint) error
}

// ViolationHandler обрабатывает отчеты о нарушениях и их просмотр
type ViolationHandler struct {
	violations ViolationManager
	logger     *zap.Logger
}

// NewViolationHandler создает обработчик нарушений
func NewViolationHandler(violations ViolationManager, logger *zap.Logger) *ViolationHandler {
	return &ViolationHandler{violations: violations, logger: logger.Named("violation_handler")}
}

// Report принимает отчет клиента о нарушении
// POST /api/contests/:id/violations
func (h *ViolationHandler) Report(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	var req dto.ReportViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	userAgent := truncateUserAgent(c.Request.UserAgent())

	result, err := h.violations.Report(c.Request.Context(), service.ReportInput{
		ContestID:        contestID,
		UserID:           middleware.UserIDFromContext(c),
		Kind:             req.ViolationType,
		Detail:           req.ViolationDetails,
		ProblemDisplayID: req.ProblemID,
		IPAddress:        c.ClientIP(),
		UserAgent:        userAgent,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewReportViolationResponse(result.ViolationID, result.ProblemViolationCount, result.ProblemPenaltyMinutes, result.Duplicate))
}

// truncateUserAgent обрезает User-Agent до maxUserAgentLength байт по границе символа
func truncateUserAgent(ua string) string {
	ua = strings.ToValidUTF8(ua, "")
	if len(ua) <= maxUserAgentLength {
		return ua
	}
	n := maxUserAgentLength
	for n > 0 && !utf8.RuneStart(ua[n]) {
		n--
	}
	return ua[:n]
}

// List возвращает нарушения caller или, для администратора, указанного пользователя
// GET /api/contests/:id/violations?user_id=
func (h *ViolationHandler) List(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	userID, err := optionalUintQuery(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}

	violations, err := h.violations.List(c.Request.Context(), middleware.UserIDFromContext(c), contestID, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewViolationListResponse(violations))
}

// Details возвращает нарушения, сгруппированные по пользователю и задаче
// GET /api/contests/:id/violations/details?user_id=
func (h *ViolationHandler) Details(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	userID, err := optionalUintQuery(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}

	details, err := h.violations.Details(c.Request.Context(), middleware.UserIDFromContext(c), contestID, userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UserViolations возвращает нарушения пользователя, опционально по одной задаче
// GET /api/contests/:id/violations/user?user_id=&problem_id=
func (h *ViolationHandler) UserViolations(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	userID, err := optionalUintQuery(c, "user_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return
	}
	problemID, err := optionalUintQuery(c, "problem_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem_id"})
		return
	}

	result, err := h.violations.UserViolations(c.Request.Context(), middleware.UserIDFromContext(c), contestID, userID, problemID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Status возвращает сводку нарушений caller
// GET /api/contests/:id/anti-cheat/status
func (h *ViolationHandler) Status(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)

	status, err := h.violations.Status(c.Request.Context(), middleware.UserIDFromContext(c), contestID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ProblemStatus сообщает, требуется ли античит для задачи
// GET /api/contests/:id/anti-cheat/problems/:problem_id
func (h *ViolationHandler) ProblemStatus(c *gin.Context) {
	contestID := c.MustGet("contestID").(uint)
	displayID := c.Param("problem_id")
	if displayID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid problem_id"})
		return
	}

	status, err := h.violations.ProblemStatus(c.Request.Context(), middleware.UserIDFromContext(c), contestID, displayID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Delete удаляет нарушение
// DELETE /api/violations/:id
func (h *ViolationHandler) Delete(c *gin.Context) {
	violationID := c.MustGet("violationID").(uint)

	if err := h.violations.Delete(c.Request.Context(), middleware.UserIDFromContext(c), violationID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Violation deleted"})
}
