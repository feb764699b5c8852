package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	ContextKeyRequestID = "request_id"
	contextKeyLogger    = "logger"
)

// RequestID присваивает запросу идентификатор и кладет в контекст логгер с полем request_id.
// Пришедший от балансировщика X-Request-ID сохраняется.
func RequestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Set(ContextKeyRequestID, id)
		c.Set(contextKeyLogger, base.With(zap.String("request_id", id)))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// AccessLog пишет строку лога на каждый запрос. Ставится после RequestID.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := LoggerFromContext(c, base)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := UserIDFromContext(c); userID != 0 {
			fields = append(fields, zap.Uint("user_id", userID))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Info("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// LoggerFromContext возвращает логгер запроса или fallback
func LoggerFromContext(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(contextKeyLogger); ok {
		if log, ok := v.(*zap.Logger); ok {
			return log
		}
	}
	return fallback
}
