package middleware

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/wellnest-backend/pkg/clientip"
	"github.com/go-chi/httprate"
)

const (
	checkRemindersRequests = 6
	checkRemindersWindow   = time.Minute
)

// CheckRemindersRateLimit guards the manual dispatch trigger: each call can send
// email, so an external scheduler gets a handful of calls per minute per IP.
func CheckRemindersRateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		checkRemindersRequests,
		checkRemindersWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientip.RealClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeTooMany(w, `{"error":"Too many reminder checks. Please slow down."}`)
		}),
	)
}
