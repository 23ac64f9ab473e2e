package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/literag/internal/pkg/errcode"
	"github.com/xxxsen/literag/internal/pkg/response"
)

type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// RateLimit allows one request per key per window, keyed by client ip,
// user and route.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window: window,
		last:   make(map[string]time.Time),
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	user := "-"
	if v, ok := c.Get(ContextUserKey); ok {
		if name, ok := v.(string); ok && name != "" {
			user = name
		}
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, user, path}, "|")

	now := time.Now()
	l.mu.Lock()
	last, seen := l.last[key]
	if seen && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("request rate limited",
			zap.String("ip", ip), zap.String("path", path))
		response.Error(c, errcode.ErrInvalid, "too many requests")
		c.Abort()
		return
	}
	l.last[key] = now
	if len(l.last) > 4096 {
		for k, ts := range l.last {
			if now.Sub(ts) >= l.window {
				delete(l.last, k)
			}
		}
	}
	l.mu.Unlock()
	c.Next()
}
