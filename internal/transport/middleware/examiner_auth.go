// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/credentia/credential-runtime/internal/auth"
)

const healthzPath = "/healthz"
const metricsPath = "/metrics"
const versionPath = "/version"
const headerRateLimitLimit = "X-RateLimit-Limit"
const headerRateLimitRemaining = "X-RateLimit-Remaining"
const headerRetryAfter = "Retry-After"

// requestsPerMinute caps per-examiner request throughput.
const requestsPerMinute = 120

type ExaminerResolver interface {
	ResolveExaminer(ctx context.Context, bearerToken string) (auth.Examiner, bool, error)
}

// ExaminerTokenAuth enforces bearer-token authentication for all routes
// except /healthz, /metrics, and /version; resolves the examiner identity
// from the token and stores it on the request context so the audit trail can
// record who acted.
func ExaminerTokenAuth(resolver ExaminerResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return examinerTokenAuthWithLimiter(resolver, newInMemoryRateLimiter(), logger)
}

func examinerTokenAuthWithLimiter(
	resolver ExaminerResolver,
	limiter *inMemoryRateLimiter,
	logger *slog.Logger,
) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("middleware.ExaminerTokenAuth requires a resolver")
	}
	if limiter == nil {
		panic("middleware.ExaminerTokenAuth requires a limiter")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == healthzPath || r.URL.Path == metricsPath || r.URL.Path == versionPath {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, ok := bearerToken(authHeader)
			if !ok {
				logger.Warn("request blocked by examiner token middleware",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "missing or invalid examiner token", http.StatusUnauthorized)
				return
			}

			examiner, found, err := resolver.ResolveExaminer(r.Context(), token)
			if err != nil {
				logger.Error("examiner resolution failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				http.Error(w, "auth lookup failed", http.StatusInternalServerError)
				return
			}

			if !found {
				logger.Warn("request blocked by examiner lookup",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "missing or invalid examiner token", http.StatusUnauthorized)
				return
			}

			decision := limiter.Allow(examiner.ID, requestsPerMinute, time.Now())
			w.Header().Set(headerRateLimitLimit, strconv.Itoa(decision.LimitPerMinute))
			w.Header().Set(headerRateLimitRemaining, strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				w.Header().Set(headerRetryAfter, strconv.Itoa(decision.RetryAfterSeconds))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			// Preserve authenticated context on the current request pointer so
			// outer middleware (request logging) can read the examiner after
			// next returns.
			*r = *r.WithContext(auth.WithExaminer(r.Context(), examiner))
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	schemeToken := strings.SplitN(header, " ", 2)
	if len(schemeToken) != 2 {
		return "", false
	}
	if !strings.EqualFold(schemeToken[0], "Bearer") {
		return "", false
	}
	if schemeToken[1] == "" {
		return "", false
	}
	return schemeToken[1], true
}
