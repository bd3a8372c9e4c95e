package handler

import (
	"net/http"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/observability"
	"github.com/elevare/elevare-backend-go/internal/infra/realtime"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups everything the router dispatches to.
type Services struct {
	Auth          *service.AuthService
	Users         *service.UserService
	Leads         *service.LeadService
	Calls         *service.CallService
	Tasks         *service.TaskService
	Moods         *service.MoodService
	Properties    *service.PropertyService
	Payments      *service.PaymentService
	Documents     *service.DocumentService
	Notifications *service.NotificationService
	// Expander resolves references on single-record reads; nil serves
	// raw IDs.
	Expander *service.Expander
}

// Options configures the HTTP pipeline.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// Deps are the infrastructure pieces the pipeline itself needs.
type Deps struct {
	Auth      *Authenticator
	Limiter   port.Limiter
	Readiness port.Readiness
	Hub       *realtime.Hub
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// List filters accepted as query parameters per resource.
var (
	leadFilters     = []string{"status", "priority", "source", "interestedIn"}
	callFilters     = []string{"sentiment", "lead"}
	taskFilters     = []string{"status", "priority", "type", "assignedTo"}
	moodFilters     = []string{"entryType"}
	propertyFilters = []string{"status", "type", "tenant"}
	paymentFilters  = []string{"status", "type", "property", "tenant"}
	documentFilters = []string{"type", "property"}
	userFilters     = []string{"role", "company"}
)

// NewRouter creates the HTTP router with all routes and middleware.
// Request order: CORS, rate limit, store readiness, body limit,
// authentication, role gate, handler.
func NewRouter(svc Services, deps Deps, opts Options) http.Handler {
	logger := deps.Logger
	metrics := deps.Metrics

	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(metrics.Middleware)
	r.Use(Recoverer(logger))
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(CORS(opts.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// --- Operational endpoints ---
	r.Get("/health", healthHandler())
	r.Get("/healthz", healthzHandler(deps.Readiness))
	r.Get("/readyz", readyzHandler(deps.Readiness))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	gate := func(res policy.Resource, act policy.Action) func(http.Handler) http.Handler {
		return RequireRole(res, act, metrics, logger)
	}
	authed := deps.Auth.Middleware(false)

	// --- API v1 ---
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(deps.Limiter, metrics, logger))
		r.Use(RequireStore(deps.Readiness, logger))
		r.Use(BodyLimit(opts.MaxBodyBytes))

		// =============================================
		// Auth
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authRegisterHandler(svc.Auth, logger))
			r.Post("/login", authLoginHandler(svc.Auth, logger))
			r.Post("/forgot-password", authForgotPasswordHandler(svc.Auth, logger))
			r.Put("/reset-password/{resetToken}", authResetPasswordHandler(svc.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/logout", authLogoutHandler())
				r.Get("/me", authMeHandler(svc.Auth, logger))
				r.Put("/password", authChangePasswordHandler(svc.Auth, logger))
			})
		})

		// =============================================
		// Notifications
		// =============================================
		r.Route("/notifications", func(r chi.Router) {
			// Browsers cannot set headers on websockets; the stream also
			// accepts ?token=.
			r.With(deps.Auth.Middleware(true)).Get("/stream", notificationStreamHandler(deps.Hub))

			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/", listNotificationsHandler(svc.Notifications, logger))
				r.Put("/{id}/read", markNotificationReadHandler(svc.Notifications, logger))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authed)

			// =============================================
			// Users
			// =============================================
			r.Route("/users", func(r chi.Router) {
				r.With(gate(policy.User, policy.List)).Get("/", listHandler[domain.User](svc.Users, userFilters, logger))
				r.Get("/{id}", getHandler[domain.User](svc.Users, logger))
				r.Put("/{id}", updateHandler[domain.User](svc.Users, logger))
				r.With(gate(policy.User, policy.Delete)).Delete("/{id}", deleteHandler(svc.Users, logger))
			})

			// =============================================
			// Leads, Properties, Payments, Documents
			// =============================================
			r.Route("/leads", crudRoutes[domain.Lead](svc.Leads, policy.Lead, leadFilters,
				readHandler[domain.Lead](svc.Leads, svc.Expander, service.LeadRefs, logger), gate, logger))
			r.Route("/properties", crudRoutes[domain.Property](svc.Properties, policy.Property, propertyFilters,
				readHandler[domain.Property](svc.Properties, svc.Expander, service.PropertyRefs, logger), gate, logger))
			r.Route("/payments", crudRoutes[domain.Payment](svc.Payments, policy.Payment, paymentFilters,
				readHandler[domain.Payment](svc.Payments, svc.Expander, service.PaymentRefs, logger), gate, logger))
			r.Route("/documents", crudRoutes[domain.Document](svc.Documents, policy.Document, documentFilters,
				readHandler[domain.Document](svc.Documents, svc.Expander, service.DocumentRefs, logger), gate, logger))

			// =============================================
			// Calls
			// =============================================
			r.Route("/calls", func(r chi.Router) {
				r.Get("/", listHandler[domain.Call](svc.Calls, callFilters, logger))
				r.With(gate(policy.Call, policy.Create)).Post("/", createHandler[domain.Call](svc.Calls, logger))
				r.Get("/{id}", readHandler[domain.Call](svc.Calls, svc.Expander, service.CallRefs, logger))
				r.With(gate(policy.Call, policy.Delete)).Delete("/{id}", deleteHandler(svc.Calls, logger))
				r.With(gate(policy.Call, policy.Feedback)).Post("/{id}/feedback", callFeedbackHandler(svc.Calls, logger))
			})

			// =============================================
			// Tasks
			// =============================================
			r.Route("/tasks", func(r chi.Router) {
				crudRoutes[domain.Task](svc.Tasks, policy.Task, taskFilters,
					readHandler[domain.Task](svc.Tasks, svc.Expander, service.TaskRefs, logger), gate, logger)(r)
				r.With(gate(policy.Task, policy.Resolve)).Put("/{id}/resolve", taskResolveHandler(svc.Tasks, logger))
			})

			// =============================================
			// Moods
			// =============================================
			r.Route("/moods", func(r chi.Router) {
				r.Get("/", listHandler[domain.MoodEntry](svc.Moods, moodFilters, logger))
				r.Post("/", createHandler[domain.MoodEntry](svc.Moods, logger))
				r.Get("/daily", moodDailyHandler(svc.Moods, logger))
				r.Get("/daily-analysis", moodDailyHandler(svc.Moods, logger))
				r.Get("/weekly", moodWeeklyHandler(svc.Moods, logger))
				r.Get("/weekly-trends", moodWeeklyHandler(svc.Moods, logger))
				r.Get("/{id}", getHandler[domain.MoodEntry](svc.Moods, logger))
				r.Delete("/{id}", deleteHandler(svc.Moods, logger))
			})

			// =============================================
			// System
			// =============================================
			r.With(gate(policy.System, policy.Read)).Get("/system/metrics", systemMetricsHandler(metrics))
		})
	})

	return r
}

// crudRoutes mounts list/create/get/update/delete with the role gate for
// each action. read serves GET /{id}.
func crudRoutes[T any](svc crudService[T], res policy.Resource, filters []string, read http.HandlerFunc, gate func(policy.Resource, policy.Action) func(http.Handler) http.Handler, logger *zap.Logger) func(chi.Router) {
	return func(r chi.Router) {
		r.With(gate(res, policy.List)).Get("/", listHandler[T](svc, filters, logger))
		r.With(gate(res, policy.Create)).Post("/", createHandler[T](svc, logger))
		r.With(gate(res, policy.Read)).Get("/{id}", read)
		r.With(gate(res, policy.Update)).Put("/{id}", updateHandler[T](svc, logger))
		r.With(gate(res, policy.Delete)).Delete("/{id}", deleteHandler(svc, logger))
	}
}

// ============================================================
// Health
// ============================================================

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Heartbeat{Status: "OK", Timestamp: time.Now().UTC()})
	}
}

func storeHealth(ready port.Readiness) domain.HealthStatus {
	state := ready.State()
	status := "healthy"
	if state != domain.Connected {
		status = "degraded"
	}
	return domain.HealthStatus{
		Status: status,
		Services: []domain.ServiceHealth{
			{Name: "elevare-api", Status: "healthy", LastChecked: time.Now().UTC().Format(time.RFC3339)},
			{Name: "database", Status: state.String(), LastChecked: time.Now().UTC().Format(time.RFC3339)},
		},
	}
}

// healthzHandler is liveness: always 200 while the process serves.
func healthzHandler(ready port.Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, storeHealth(ready))
	}
}

// readyzHandler is readiness: 503 until the store is connected.
func readyzHandler(ready port.Readiness) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := storeHealth(ready)
		status := http.StatusOK
		if ready.State() != domain.Connected {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}
