package http

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/logging"
	"github.com/layer-3/walletauth/ports"
	"github.com/layer-3/walletauth/service"
)

var log = logging.Logger("http")

const sessionKey = "session"

// AuthMiddleware creates middleware that validates access tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			abort(c, http.StatusUnauthorized, codeInvalidToken, "invalid authorization header", false)
			return
		}

		session, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *core.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*core.Session)
	return session
}

// RateLimit rejects clients exceeding limiter's budget. Limiter failures let the request through.
func RateLimit(limiter ports.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warnw("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			abort(c, http.StatusTooManyRequests, codeRateLimited, "too many requests, slow down", true)
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request once it completes
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warnw("request", fields...)
			return
		}
		log.Debugw("request", fields...)
	}
}
