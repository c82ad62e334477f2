package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stockroom/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry counts requests from one IP in a fixed window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// IPLimiter is a fixed-window request counter keyed by client IP.
type IPLimiter struct {
	name   string
	limit  int
	window time.Duration

	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewIPLimiter(name string, limit int, window time.Duration) *IPLimiter {
	return &IPLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records one request from ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *IPLimiter) Allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.Allow(c.ClientIP())
		if !ok {
			retry := int(windowEnd.Sub(l.now()).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
			return
		}
		c.Next()
	}
}

// purge drops expired windows and returns how many were removed.
func (l *IPLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

// StartPurge removes expired entries every interval until ctx is done.
func (l *IPLimiter) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.purge(); n > 0 {
					log.Debug().Str("limiter", l.name).Int("purged", n).Msg("rate limiter entries purged")
				}
			}
		}
	}()
}
