package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/middleware"
	apperrors "github.com/yourusername/contest-rank-api/internal/pkg/errors"
)

// handleServiceError переводит ошибку сервиса в HTTP ответ
func handleServiceError(c *gin.Context, log *zap.Logger, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		middleware.LoggerFromContext(c, log).Error("Internal server error",
			zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parsePagination читает page и page_size; нормализацию границ делает сервис
func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	if err != nil {
		pageSize = 0
	}
	return page, pageSize
}

// queryBool понимает 1/true/yes
func queryBool(c *gin.Context, name string) bool {
	switch c.Query(name) {
	case "1", "true", "True", "yes":
		return true
	}
	return false
}

// optionalUintQuery возвращает nil для отсутствующего параметра
func optionalUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return nil, apperrors.ErrValidation
	}
	id := uint(v)
	return &id, nil
}
