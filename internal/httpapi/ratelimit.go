package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/claimrelay/internal/model"
	"golang.org/x/time/rate"
)

const (
	maxRateLimitBurst    = 5
	limiterIdleTTL       = 10 * time.Minute
	limiterPruneInterval = time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRateLimiter keeps one token bucket per client IP.
type clientRateLimiter struct {
	mutex      sync.Mutex
	limiters   map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	now        func() time.Time
	lastPruned time.Time
}

func newClientRateLimiter(requestsPerMinute int, now func() time.Time) *clientRateLimiter {
	burst := requestsPerMinute
	if burst > maxRateLimitBurst {
		burst = maxRateLimitBurst
	}
	return &clientRateLimiter{
		limiters:   make(map[string]*clientLimiter),
		limit:      rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:      burst,
		now:        now,
		lastPruned: now(),
	}
}

func (store *clientRateLimiter) allow(clientIP string) bool {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	currentTime := store.now()
	if currentTime.Sub(store.lastPruned) >= limiterPruneInterval {
		for key, entry := range store.limiters {
			if currentTime.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(store.limiters, key)
			}
		}
		store.lastPruned = currentTime
	}

	entry, exists := store.limiters[clientIP]
	if !exists {
		entry = &clientLimiter{limiter: rate.NewLimiter(store.limit, store.burst)}
		store.limiters[clientIP] = entry
	}
	entry.lastSeen = currentTime
	return entry.limiter.AllowN(currentTime, 1)
}

func rateLimitMiddleware(store *clientRateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		clientIP := contextGin.ClientIP()
		if !store.allow(clientIP) {
			logger.Warn("Rate limit exceeded", "client_ip", clientIP, "request_id", contextGin.GetString(contextKeyRequestID))
			contextGin.AbortWithStatusJSON(http.StatusTooManyRequests, model.SubmissionFailed("Too many submissions. Please try again later."))
			return
		}
		contextGin.Next()
	}
}
