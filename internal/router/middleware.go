package router

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellersaathi/copilot-api/pkg/global"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/redis"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderAPIKey    = "X-API-Key"

	maxRequestIDLength = 128
)

// RequestID reuses the caller's X-Request-ID or assigns a new one, and puts
// a logger carrying it into the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Set("request_id", id)

		l := logger.WithRequestID(id)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := logger.FromContext(c.Request.Context())
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}

// APIKey requires an X-API-Key matching the bcrypt hash. An empty hash
// turns the check off.
func APIKey(hash string) gin.HandlerFunc {
	if hash == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderAPIKey)
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			c.JSON(http.StatusUnauthorized, global.ErrorResponse("Invalid or missing API key", []global.ValidationError{
				{Field: HeaderAPIKey, Message: "a valid API key is required", Code: "unauthorized"},
			}))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimit takes one token per request from the client's bucket. Redis
// errors let the request through.
func RateLimit(limiter *redis.Limiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		decision, err := limiter.Take(c.Request.Context(), "ip:"+c.ClientIP())
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit().Capacity))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, global.ErrorResponse("Too many requests", []global.ValidationError{
				{Field: "client", Message: "rate limit exceeded, retry after " + strconv.Itoa(retryAfter) + "s", Code: "rate_limited"},
			}))
			c.Abort()
			return
		}
		c.Next()
	}
}
