package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lessonplan-api/pkg/errors"
	"github.com/noah-isme/lessonplan-api/pkg/ratelimit"
	"github.com/noah-isme/lessonplan-api/pkg/response"
)

// Limiter admits or rejects one request for an identifier.
type Limiter interface {
	Allow(ctx context.Context, rule ratelimit.Rule, identifier string) (ratelimit.Result, error)
}

// RejectionRecorder counts rejected requests per rule.
type RejectionRecorder interface {
	RecordRateLimited(rule string)
}

// RateLimitRules are the three limiter tiers.
type RateLimitRules struct {
	Authenticated ratelimit.Rule
	Anonymous     ratelimit.Rule
	AuthEndpoint  ratelimit.Rule
}

// RateLimitOptions wires the limiter middleware.
type RateLimitOptions struct {
	Limiter  Limiter
	Rules    RateLimitRules
	Tokens   TokenValidator
	Recorder RejectionRecorder
	Logger   *zap.Logger
	// SkipPaths are exact request paths left unlimited, such as probes.
	SkipPaths []string
	Now       func() time.Time
}

// RateLimit applies the sliding window tiers. Auth endpoints are keyed by IP
// under the strictest tier; other requests are keyed by user id when a valid
// bearer token is presented and by IP otherwise. Limiter errors fail open.
func RateLimit(opts RateLimitOptions) gin.HandlerFunc {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if opts.Limiter == nil {
			c.Next()
			return
		}
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		rule, identifier := selectRule(c, opts)
		result, err := opts.Limiter.Allow(c.Request.Context(), rule, identifier)
		if err != nil {
			opts.Logger.Warn("rate limiter unavailable, allowing request", zap.String("rule", rule.Name), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			if opts.Recorder != nil {
				opts.Recorder.RecordRateLimited(rule.Name)
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(result.RetryAfter(opts.Now()))))
			response.Abort(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

// retryAfterSeconds rounds up so a client never sees Retry-After: 0 while
// the window is still closed.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

func selectRule(c *gin.Context, opts RateLimitOptions) (ratelimit.Rule, string) {
	if isAuthEndpoint(c.Request.URL.Path) {
		return opts.Rules.AuthEndpoint, "ip:" + c.ClientIP()
	}
	if opts.Tokens != nil {
		if token, ok := BearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := opts.Tokens.ValidateToken(token); err == nil && claims.Identity() != "" {
				return opts.Rules.Authenticated, "user:" + claims.Identity()
			}
		}
	}
	return opts.Rules.Anonymous, "ip:" + c.ClientIP()
}

func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/auth/")
}
