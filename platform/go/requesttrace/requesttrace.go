package requesttrace

import (
	"context"
	"errors"

	"go.uber.org/zap"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "CRM_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindAgent     ActorKind = "agent"
	ActorKindAnonymous ActorKind = "anonymous"
)

// AuditInfo identifies who a call acts for. Every lead and quick note query is
// scoped by AgentID, which is set only when ActorKind is agent. API requests
// carry the chi request id; CLI sessions use a "cli-" prefixed one.
type AuditInfo struct {
	ActorKind  ActorKind
	AgentID    *string
	AgentEmail string
	RequestID  string
}

// Agent returns the acting agent id, or false for anonymous actors.
func (a AuditInfo) Agent() (string, bool) {
	if a.ActorKind != ActorKindAgent || a.AgentID == nil || *a.AgentID == "" {
		return "", false
	}
	return *a.AgentID, true
}

// Fields returns the log fields that tag entries with the actor.
func (a AuditInfo) Fields() []zap.Field {
	fields := []zap.Field{zap.String("actor_kind", string(a.ActorKind))}
	if agentID, ok := a.Agent(); ok {
		fields = append(fields, zap.String("agent_id", agentID))
	}
	return fields
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	v := ctx.Value(ctxAuditInfo)
	if v == nil {
		return AuditInfo{}, false
	}

	audit, ok := v.(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// FromCredentials builds an AuditInfo from authenticated agent credentials and a request ID.
// Returns an error when creds are nil or missing an id.
func FromCredentials(creds *platformauth.AgentCredentials, requestID string) (AuditInfo, error) {
	if creds == nil {
		return AuditInfo{}, errors.New("credentials are required to build audit info")
	}
	if creds.Id == "" {
		return AuditInfo{}, errors.New("agent id is required to build audit info")
	}

	id := creds.Id
	return AuditInfo{
		ActorKind:  ActorKindAgent,
		AgentID:    &id,
		AgentEmail: creds.Email,
		RequestID:  requestID,
	}, nil
}

// ForAgent builds an AuditInfo for an agent acting outside an HTTP request, such as the CLI.
func ForAgent(agentID, email, requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAgent, AgentID: &agentID, AgentEmail: email, RequestID: requestID}
}

// Anonymous builds an AuditInfo for unauthenticated requests.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}
