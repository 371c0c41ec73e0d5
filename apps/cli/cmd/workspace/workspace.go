// Package workspace opens the stores and books the CLI commands act on, on
// behalf of a single agent.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	leadsbook "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/book"
	leadsrepo "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/repo"
	leadsservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	quicknotesbook "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/book"
	quicknotesrepo "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/repo"
	quicknotesservice "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/requesttrace"
)

// ErrAgentRequired is returned when a command needs an agent and none was given.
var ErrAgentRequired = errors.New("an agent id is required (--agent-id or CRM_AGENT_ID)")

// Options are shared by every command that touches the database. Environment
// variables provide the defaults and flags override them.
type Options struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Schema      string `env:"DATABASE_SCHEMA"`
	AgentID     string `env:"CRM_AGENT_ID"`
	AgentEmail  string `env:"CRM_AGENT_EMAIL"`
	TimeZone    string `env:"TIMEZONE" envDefault:"UTC"`
	PhoneRegion string `env:"PHONE_REGION" envDefault:"US"`
}

// applicationName tags CLI sessions in pg_stat_activity.
const applicationName = "simple-sales-crm-cli"

// Logger returns the command logger stored by the root command, or a no-op
// logger when none is present.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return zap.NewNop()
}

// Bind registers the database flags on cmd. withAgent also registers the
// agent identity flags.
func (o *Options) Bind(cmd *cobra.Command, withAgent bool) {
	// An unparsable environment leaves the zero defaults in place.
	_ = env.Parse(o)

	flags := cmd.Flags()
	flags.StringVar(&o.DatabaseURL, "database-url", o.DatabaseURL, "PostgreSQL connection string (DATABASE_URL)")
	flags.StringVar(&o.Schema, "schema", o.Schema, "schema holding the CRM tables (DATABASE_SCHEMA)")
	if !withAgent {
		return
	}
	flags.StringVar(&o.AgentID, "agent-id", o.AgentID, "agent that owns the leads and quick notes (CRM_AGENT_ID)")
	flags.StringVar(&o.AgentEmail, "agent-email", o.AgentEmail, "email recorded for the agent (CRM_AGENT_EMAIL)")
	flags.StringVar(&o.TimeZone, "timezone", o.TimeZone, "IANA zone for callbacks and today (TIMEZONE)")
	flags.StringVar(&o.PhoneRegion, "phone-region", o.PhoneRegion, "default region for phone validation (PHONE_REGION)")
}

// Workspace is an open connection plus the agent-scoped books built on it.
type Workspace struct {
	Pool       *pgxpool.Pool
	Location   *time.Location
	Leads      *leadsbook.LeadBook
	QuickNotes *quicknotesbook.QuickNoteBook
}

// Connect opens the pool only. Callers close it with persistence.ClosePool.
func Connect(ctx context.Context, o Options) (*pgxpool.Pool, error) {
	if strings.TrimSpace(o.DatabaseURL) == "" {
		return nil, fmt.Errorf("a database url is required (--database-url or DATABASE_URL)")
	}
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:      o.DatabaseURL,
		Schema:          o.Schema,
		ApplicationName: applicationName,
		MaxConns:        4,
	})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}
	Logger(ctx).Debug("connected to postgres", zap.String("schema", o.Schema))
	return pool, nil
}

// Open connects, builds the services and books, and returns a context that
// carries the agent's audit info.
func Open(ctx context.Context, o Options) (context.Context, *Workspace, error) {
	agentID := strings.TrimSpace(o.AgentID)
	if agentID == "" {
		return nil, nil, ErrAgentRequired
	}

	loc, err := time.LoadLocation(o.TimeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("load time zone %q: %w", o.TimeZone, err)
	}

	pool, err := Connect(ctx, o)
	if err != nil {
		return nil, nil, err
	}

	leadStore, err := persistence.NewLeadStore(pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, nil, fmt.Errorf("init lead store: %w", err)
	}
	quickNoteStore, err := persistence.NewQuickNoteStore(pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, nil, fmt.Errorf("init quick note store: %w", err)
	}

	leadService := leadsservice.New(leadsrepo.NewPostgresRepository(leadStore), leadsservice.Config{
		Location:    loc,
		PhoneRegion: o.PhoneRegion,
	})
	quickNoteService := quicknotesservice.New(quicknotesrepo.NewPostgresRepository(quickNoteStore), leadService, nil)

	leads := leadsbook.NewLeadBook(leadService)
	ws := &Workspace{
		Pool:       pool,
		Location:   loc,
		Leads:      leads,
		QuickNotes: quicknotesbook.NewQuickNoteBook(quickNoteService, leads),
	}

	Logger(ctx).Debug("workspace opened",
		zap.String("agent_id", agentID),
		zap.String("timezone", loc.String()),
		zap.String("phone_region", o.PhoneRegion),
	)

	audit := requesttrace.ForAgent(agentID, strings.TrimSpace(o.AgentEmail), "cli-"+uuid.NewString())
	return requesttrace.IntoContext(ctx, audit), ws, nil
}

// Close releases the pool.
func (w *Workspace) Close() {
	persistence.ClosePool(w.Pool)
}
