package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/simple-easy-sites/simple-sales-crm/contracts"
	leadsrepo "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/repo"
	leadsservice "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/service"
	quicknotesrepo "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/repo"
	quicknotesservice "github.com/simple-easy-sites/simple-sales-crm/domains/quicknotes/be/service"
	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/metrics"
	platformmiddleware "github.com/simple-easy-sites/simple-sales-crm/platform/go/middleware"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/persistence"
)

type config struct {
	Port               string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"json"` // json | console
	DatabaseURL        string        `env:"DATABASE_URL,required"`
	DatabaseSchema     string        `env:"DATABASE_SCHEMA"`
	DatabaseMaxConns   int32         `env:"DATABASE_MAX_CONNS"`
	StatementTimeout   time.Duration `env:"DATABASE_STATEMENT_TIMEOUT" envDefault:"10s"`
	AuthProvider       string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	FirebaseCredsFile  string        `env:"FIREBASE_CREDENTIALS_FILE"`           // empty uses application default credentials
	FirebaseProjectID  string        `env:"FIREBASE_PROJECT_ID"`
	TimeZone           string        `env:"TIMEZONE" envDefault:"UTC"`
	PhoneRegion        string        `env:"PHONE_REGION" envDefault:"US"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Fatal("load time zone", zap.String("timezone", cfg.TimeZone), zap.Error(err))
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:       cfg.DatabaseURL,
		Schema:           cfg.DatabaseSchema,
		MaxConns:         cfg.DatabaseMaxConns,
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	leadStore, err := persistence.NewLeadStore(pool)
	if err != nil {
		logger.Fatal("init lead store", zap.Error(err))
	}
	quickNoteStore, err := persistence.NewQuickNoteStore(pool)
	if err != nil {
		logger.Fatal("init quick note store", zap.Error(err))
	}

	appMetrics := metrics.New()

	leadService := leadsservice.New(leadsrepo.NewPostgresRepository(leadStore), leadsservice.Config{
		Location:    loc,
		PhoneRegion: cfg.PhoneRegion,
		Events:      appMetrics,
	})
	quickNoteService := quicknotesservice.New(quicknotesrepo.NewPostgresRepository(quickNoteStore), leadService, appMetrics)

	spec, err := contracts.Load(ctx)
	if err != nil {
		logger.Fatal("load openapi contract", zap.Error(err))
	}
	logSecuritySchemes(logger, spec)

	authMiddleware, err := buildAuthMiddleware(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init auth middleware", zap.String("provider", cfg.AuthProvider), zap.Error(err))
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = platformmiddleware.DefaultAllowedOrigins
	}

	router := newRouter(routerDeps{
		logger:         logger,
		spec:           spec,
		auth:           authMiddleware,
		metrics:        appMetrics,
		ready:          pool,
		leads:          leadService,
		quickNotes:     quickNoteService,
		location:       loc,
		requestTimeout: cfg.RequestTimeout,
		allowedOrigins: origins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port), zap.String("timezone", loc.String()))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
