package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"mvstories/internal/logging"
	"mvstories/internal/storyerr"
)

const requestIDHeader = "X-Request-ID"

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(storyerr.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Elapsed(started),
			logging.String("client", c.ClientIP()),
		}
		logger := logging.WithContext(c.Request.Context(), s.logger)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", logging.Args(attrs...)...)
		default:
			logger.Debug("request served", logging.Args(attrs...)...)
		}
	}
}

// corsMiddleware answers preflight requests and stamps CORS headers for the
// allowed origins. A "*" entry allows any origin.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := false
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			wildcard = true
			continue
		}
		if origin != "" {
			set[origin] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := set[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, If-None-Match, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "ETag, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware validates bearer tokens. An empty token disables
// authentication.
func authMiddleware(token string) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeErrorMessage(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		given := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			writeErrorMessage(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		c.Next()
	}
}

// clientLimiter keeps one token bucket per client address. Idle buckets
// expire from the cache.
type clientLimiter struct {
	limit rate.Limit
	burst int
	cache *cache.Cache
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		cache: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (l *clientLimiter) get(key string) *rate.Limiter {
	if v, ok := l.cache.Get(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			l.cache.SetDefault(key, lim)
			return lim
		}
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	if err := l.cache.Add(key, lim, cache.DefaultExpiration); err != nil {
		if v, ok := l.cache.Get(key); ok {
			if existing, ok := v.(*rate.Limiter); ok {
				return existing
			}
		}
	}
	return lim
}

func (l *clientLimiter) allow(key string) (bool, time.Duration) {
	lim := l.get(key)
	res := lim.Reserve()
	if !res.OK() {
		return false, time.Second
	}
	delay := res.Delay()
	if delay > 0 {
		res.Cancel()
		return false, delay
	}
	return true, 0
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}
		ok, wait := s.limiter.allow(c.ClientIP())
		if !ok {
			seconds := int(wait.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			writeErrorMessage(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

// bodyLimit caps request bodies at the configured upload size.
func (s *Server) bodyLimit() gin.HandlerFunc {
	limit := s.cfg.MaxUploadBytes()
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			writeErrorMessage(c, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
