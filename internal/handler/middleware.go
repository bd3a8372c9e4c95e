package handler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/observability"
	"github.com/elevare/elevare-backend-go/internal/infra/readiness"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFromContext returns the authenticated caller.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domain.Principal)
	return p, ok
}

// ============================================================
// Authentication
// ============================================================

// Authenticator verifies bearer tokens and resolves the caller. Principals
// are cached briefly; concurrent misses for one user share a single lookup.
type Authenticator struct {
	tokens  *service.Tokens
	users   port.Repository[domain.User]
	cache   port.Cache[domain.Principal]
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewAuthenticator(tokens *service.Tokens, users port.Repository[domain.User], cache port.Cache[domain.Principal], metrics *observability.Metrics, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, cache: cache, metrics: metrics, logger: logger}
}

// Middleware requires a valid bearer token. When allowQuery is set the
// token may also come from the "token" query parameter, for clients that
// cannot set headers (browser websockets).
func (a *Authenticator) Middleware(allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" && allowQuery {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				a.fail(w, r, "missing_token", &domain.ErrUnauthorized{})
				return
			}

			claims, err := a.tokens.Verify(raw)
			if err != nil {
				a.fail(w, r, "invalid_token", err)
				return
			}

			p, err := a.principal(r.Context(), claims.Sub)
			if err != nil {
				a.fail(w, r, "unknown_user", err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) principal(ctx context.Context, userID string) (domain.Principal, error) {
	if a.cache != nil {
		if p, ok := a.cache.Get(userID); ok {
			a.metrics.IncrCacheHit("principal")
			return p, nil
		}
		a.metrics.IncrCacheMiss("principal")
	}

	v, err, _ := a.group.Do(userID, func() (any, error) {
		u, err := a.users.Get(ctx, userID, domain.GlobalScope())
		if err != nil {
			return nil, err
		}
		if !u.IsActive {
			return nil, &domain.ErrUnauthorized{}
		}
		p := u.Principal()
		if a.cache != nil {
			a.cache.Set(userID, p)
		}
		return p, nil
	})
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return domain.Principal{}, &domain.ErrUnauthorized{}
		}
		return domain.Principal{}, err
	}
	return v.(domain.Principal), nil
}

func (a *Authenticator) fail(w http.ResponseWriter, r *http.Request, reason string, err error) {
	var unavailable *domain.ErrUnavailable
	if !errors.As(err, &unavailable) {
		a.metrics.IncrAuthFailure(reason)
		a.logger.Debug("auth: rejected",
			zap.String("reason", reason),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
	}
	handleServiceError(w, err, a.logger)
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ============================================================
// Role gate
// ============================================================

// RequireRole rejects callers whose role the policy table does not permit
// for action on resource. It must run after authentication.
func RequireRole(res policy.Resource, act policy.Action, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				handleServiceError(w, &domain.ErrUnauthorized{}, logger)
				return
			}
			if err := policy.Authorize(p, res, act); err != nil {
				metrics.IncrAuthzDenied(string(res), string(act))
				handleServiceError(w, err, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ============================================================
// Rate limiting
// ============================================================

// RateLimit counts requests per client IP. Limiter errors let the request
// through.
func RateLimit(limiter port.Limiter, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			retry := int(math.Ceil(time.Until(d.ResetAt).Seconds()))
			if retry < 0 {
				retry = 0
			}
			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(retry))

			if !d.Allowed {
				metrics.IncrRateLimited()
				handleServiceError(w, &domain.ErrRateLimited{RetryAfterSeconds: retry}, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ============================================================
// CORS, body limit, recovery
// ============================================================

// CORS allows the configured origins and any http://localhost port, with
// credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return allowed[origin] || strings.HasPrefix(origin, "http://localhost:") || origin == "http://localhost"
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && n > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStore answers 503 while the persistence connection is not ready,
// before the body is read or the caller authenticated.
func RequireStore(ready port.Readiness, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := readiness.Check(ready); err != nil {
				handleServiceError(w, err, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recoverer turns a panic into a 500 envelope and logs the stack.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil || rec == http.ErrAbortHandler {
					if rec != nil {
						panic(rec)
					}
					return
				}
				logger.Error("panic recovered",
					zap.String("panic", fmt.Sprint(rec)),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "Server Error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
