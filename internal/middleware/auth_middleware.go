package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/domain/entity"
	"github.com/yourusername/contest-rank-api/pkg/auth"
)

// Ключи контекста Gin
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

const bearerPrefix = "Bearer "

// TokenParser проверяет access токен
type TokenParser interface {
	ParseToken(tokenString string) (*auth.JWTCustomClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	tokens TokenParser
	logger *zap.Logger
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(tokens TokenParser, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, logger: logger.Named("auth_middleware")}
}

// bearerToken достает токен из заголовка Authorization.
// ok=false означает, что заголовок есть, но имеет неверный формат.
func bearerToken(c *gin.Context) (token string, present bool, ok bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, true
	}
	if !strings.HasPrefix(header, bearerPrefix) || len(header) == len(bearerPrefix) {
		return "", true, false
	}
	return strings.TrimPrefix(header, bearerPrefix), true, true
}

// RequireAuth требует валидный Bearer токен
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, ok := bearerToken(c)
		if !present {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			return
		}

		claims, err := m.tokens.ParseToken(token)
		if err != nil {
			m.logger.Debug("Token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth пропускает анонимные запросы, но при наличии токена проверяет его.
// Невалидный токен дает 401, чтобы клиент не получил молча анонимный ответ.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, present, _ := bearerToken(c); !present {
			c.Next()
			return
		}
		m.RequireAuth()(c)
	}
}

// AdminOnly пропускает только администраторов (Admin и Super Admin).
// Права на конкретный контест проверяет сервисный слой.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		role := c.GetString(ContextKeyRole)
		if role != entity.AdminTypeAdmin && role != entity.AdminTypeSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
			return
		}
		c.Next()
	}
}

// UserIDFromContext возвращает ID пользователя или 0 для анонимного запроса
func UserIDFromContext(c *gin.Context) uint {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
