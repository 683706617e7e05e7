package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/AnshRaj112/wellnest-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// ipLimiters holds one token bucket per client IP and evicts idle ones.
type ipLimiters struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	entries map[string]*limiterEntry
	cleanup sync.Once
	now     func() time.Time
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		limit:   limit,
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.cleanup.Do(func() { go l.evictLoop() })

	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = l.now()
	return e.limiter
}

func (l *ipLimiters) evictLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.evictIdle()
	}
}

func (l *ipLimiters) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(l.entries, ip)
		}
	}
}

func (l *ipLimiters) middleware(applies func(*http.Request) bool, message string) func(http.Handler) http.Handler {
	body := []byte(`{"success":false,"message":"` + message + `"}`)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}
			if !l.get(clientip.RealClientIP(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimit limits each IP to 1 req/s, burst 10.
func GlobalRateLimit() func(http.Handler) http.Handler {
	return newIPLimiters(rate.Limit(1), 10).middleware(nil, "Too many requests. Please slow down.")
}

// WriteRateLimit applies a stricter limit (1 per 5s, burst 5) to requests that
// create or delete records. Use after GlobalRateLimit.
func WriteRateLimit() func(http.Handler) http.Handler {
	isWrite := func(r *http.Request) bool {
		return r.Method == http.MethodPost || r.Method == http.MethodDelete
	}
	return newIPLimiters(rate.Every(5*time.Second), 5).middleware(isWrite, "Too many changes. Please try again later.")
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → GlobalRateLimit → WriteRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit(),
		WriteRateLimit(),
	}
}
