package main

import (
	"context"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	leadshandler "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/handler"
	leadsservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	quicknoteshandler "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/handler"
	quicknotesservice "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/metrics"
	platformmiddleware "github.com/simple-easy-sites/simple-sales-crm/platform/go/middleware"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type routerDeps struct {
	logger         *zap.Logger
	spec           *openapi3.T
	auth           func(http.Handler) http.Handler
	metrics        *metrics.Metrics
	ready          pinger
	leads          leadsservice.Service
	quickNotes     quicknotesservice.Service
	location       *time.Location
	now            func() time.Time
	requestTimeout time.Duration
	allowedOrigins []string
}

type agentResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	EmailVerified bool    `json:"emailVerified"`
	Name          *string `json:"name,omitempty"`
	PictureURL    *string `json:"pictureUrl,omitempty"`
}

func newRouter(deps routerDeps) http.Handler {
	if deps.requestTimeout <= 0 {
		deps.requestTimeout = 15 * time.Second
	}

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		platformlogging.RequestLogger(deps.logger),
		chimw.Recoverer,
		chimw.Timeout(deps.requestTimeout),
		platformmiddleware.CORS(deps.allowedOrigins),
		deps.metrics.Middleware,
	)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", readinessHandler(deps.ready, deps.logger))
	if deps.metrics != nil {
		rootRouter.Handle("/metrics", deps.metrics.Handler())
	}

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, deps.spec, deps.logger)

	leadsHTTPHandler := leadshandler.New(deps.leads, deps.logger, leadshandler.Options{
		Location: deps.location,
		Now:      deps.now,
		Exports:  deps.metrics,
	})
	quickNotesHTTPHandler := quicknoteshandler.New(deps.quickNotes, deps.logger)

	apiRouter := chi.NewRouter()
	apiRouter.Use(deps.auth)
	apiRouter.Use(platformmiddleware.RequestTrace)
	apiRouter.Use(newSpecValidator(deps.spec))

	apiRouter.Get("/me", meHandler)
	leadsHTTPHandler.Routes(apiRouter)
	quickNotesHTTPHandler.Routes(apiRouter)

	rootRouter.Mount("/api/v1", apiRouter)
	return rootRouter
}

// newSpecValidator checks every API request against the contract. Requests
// are matched with the full /api/v1 path against the contract servers.
func newSpecValidator(spec *openapi3.T) func(http.Handler) http.Handler {
	return oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateAuthenticationViaSwagger,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			httpx.WriteProblem(w, httpx.ProblemDetails{
				Title:  http.StatusText(statusCode),
				Status: statusCode,
				Detail: &message,
			})
		},
		SilenceServersWarning: true,
	})
}

func readinessHandler(ready pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err := ready.Ping(r.Context()); err != nil {
			platformlogging.FromRequest(r, logger).Warn("readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func meHandler(w http.ResponseWriter, r *http.Request) {
	creds, ok := platformauth.AgentFromContext(r.Context())
	if !ok || creds == nil {
		detail := "a signed-in agent is required"
		httpx.WriteProblem(w, httpx.ProblemDetails{Title: "Unauthorized", Status: http.StatusUnauthorized, Detail: &detail})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, agentResponse{
		ID:            creds.Id,
		Email:         creds.Email,
		EmailVerified: creds.EmailVerified,
		Name:          creds.Name,
		PictureURL:    creds.PictureURL,
	})
}
