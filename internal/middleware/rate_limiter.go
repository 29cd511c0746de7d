package middleware

import (
	"net/http"
	"sync"
	"time"

	"melodia/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Rate limiting ─────────────────────────────────────────────────────────────
// Per-IP fixed windows held in memory. Good enough for a single instance;
// the window resets rather than slides, which errs on the permissive side.

type limiterEntry struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

type limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   int
	window  time.Duration
	message string
}

func newLimiter(limit int, window time.Duration, message string) *limiter {
	l := &limiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		window:  window,
		message: message,
	}
	go l.purgeLoop()
	return l
}

func (l *limiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		l.mu.Lock()
		entry, ok := l.entries[ip]
		if !ok {
			entry = &limiterEntry{}
			l.entries[ip] = entry
		}
		l.mu.Unlock()

		entry.mu.Lock()
		defer entry.mu.Unlock()

		now := time.Now()
		if now.After(entry.windowEnd) {
			entry.count = 0
			entry.windowEnd = now.Add(l.window)
		}
		entry.count++
		if entry.count > l.limit {
			c.Header("Retry-After", entry.windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// purgeLoop drops expired IPs so the maps do not grow without bound.
func (l *limiter) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		purged := 0
		for ip, entry := range l.entries {
			entry.mu.Lock()
			if now.After(entry.windowEnd) {
				delete(l.entries, ip)
				purged++
			}
			entry.mu.Unlock()
		}
		remaining := len(l.entries)
		l.mu.Unlock()

		if purged > 0 {
			log.Debug().Int("purged", purged).Int("remaining", remaining).
				Msg("rate limiter purgado")
		}
	}
}

// LoginRateLimiter limits authentication attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newLimiter(20, time.Minute,
		"Demasiados intentos de login. Intente en 1 minuto.").middleware()
}

// RateLimiter is the general API limiter applied to the whole v1 group.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newLimiter(limit, window,
		"Demasiadas solicitudes. Intente nuevamente en un momento.").middleware()
}
