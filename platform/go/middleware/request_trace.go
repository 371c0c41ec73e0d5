package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/httpx"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/requesttrace"
)

// RequestTrace stores the acting agent's AuditInfo on the context and tags the
// request logger with it. It runs after JWT; requests without credentials are
// traced as anonymous and rejected later by the services.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := platformlogging.FromRequest(r, nil)

		audit, err := auditFor(r)
		if err != nil {
			if logger != nil {
				logger.Warn("rejecting credentials without an agent id", zap.Error(err))
			}
			detail := "the token does not identify an agent"
			httpx.WriteProblem(w, httpx.ProblemDetails{
				Title:  http.StatusText(http.StatusUnauthorized),
				Status: http.StatusUnauthorized,
				Detail: &detail,
			})
			return
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		if logger != nil {
			ctx = platformlogging.WithLogger(ctx, logger.With(audit.Fields()...))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func auditFor(r *http.Request) (requesttrace.AuditInfo, error) {
	requestID := middleware.GetReqID(r.Context())
	creds, ok := platformauth.AgentFromContext(r.Context())
	if !ok || creds == nil {
		return requesttrace.Anonymous(requestID), nil
	}
	return requesttrace.FromCredentials(creds, requestID)
}
