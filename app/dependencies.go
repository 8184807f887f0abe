package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/upb/media-gateway/auth"
	"github.com/upb/media-gateway/config"
	"github.com/upb/media-gateway/handlers"
	"github.com/upb/media-gateway/middleware"
	"github.com/upb/media-gateway/repositories"
	"github.com/upb/media-gateway/repositories/postgres"
	"github.com/upb/media-gateway/services/audit"
	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/providers/deepseek"
	"github.com/upb/media-gateway/services/providers/groq"
	"github.com/upb/media-gateway/services/providers/openai"
	"github.com/upb/media-gateway/services/review"
	"github.com/upb/media-gateway/services/routing"
)

// defaultAuditDrainTimeout bounds how long Close waits for pending audit
// records when ctx has no deadline
const defaultAuditDrainTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when the audit trail is disabled
	Logger *zap.Logger

	// Repositories
	RouteAudits repositories.RouteAuditRepository

	// Providers and routing
	ProviderRegistry *providers.Registry
	ChatRouter       *routing.Router
	TranslateRouter  *routing.Router

	// Services
	ReviewService *review.Service
	AuditService  *audit.AuditService // nil when the audit trail is disabled

	// Auth, nil when no credential is configured
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// The database is only opened when DATABASE_URL is set.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	var db *postgres.DB
	if cfg.Database.Enabled() {
		var err error
		db, err = postgres.NewDB(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set, route audit trail disabled")
	}

	deps, err := newDependencies(ctx, cfg, logger, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return deps, nil
}

// newDependencies wires everything on top of an already opened db, which may be nil
func newDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, db *postgres.DB) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Logger: logger,
	}

	if err := deps.initAudit(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize audit trail: %w", err)
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initRouters(cfg); err != nil {
		deps.stopAudit(ctx)
		return nil, fmt.Errorf("failed to initialize routers: %w", err)
	}

	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.ProviderRegistry.ListProviders()),
		zap.Strings("configured", cfg.ConfiguredProviders()),
		zap.Bool("audit", deps.AuditService != nil),
		zap.Bool("auth", deps.AuthMiddleware != nil),
	)
	return deps, nil
}

// initAudit creates the route audit schema, repository and async writer
func (d *Dependencies) initAudit(ctx context.Context) error {
	if d.DB == nil {
		return nil
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return err
	}

	d.RouteAudits = postgres.NewRouteAuditRepository(d.DB, d.Logger)
	service := audit.NewAuditService(d.RouteAudits, d.Logger, audit.Config{
		BufferSize:  d.Config.Audit.BufferSize,
		WorkerCount: d.Config.Audit.WorkerCount,
	})
	if err := service.Start(); err != nil {
		return err
	}
	d.AuditService = service
	return nil
}

// initProviders registers every adapter. Adapters without an API key stay
// registered and fail per call with a config error.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	adapters := []providers.Provider{
		deepseek.NewDeepSeekAdapter(cfg.Providers.DeepSeek),
		groq.NewGroqAdapter(cfg.Providers.Groq),
		openai.NewOpenAIAdapter(cfg.Providers.OpenAI),
	}
	for _, adapter := range adapters {
		if err := registry.RegisterProvider(adapter); err != nil {
			return fmt.Errorf("register %s: %w", adapter.Name(), err)
		}
		d.Logger.Info("provider registered", zap.String("provider", adapter.Name()))
	}

	if len(cfg.ConfiguredProviders()) == 0 {
		d.Logger.Warn("no LLM provider API keys configured")
	}

	d.ProviderRegistry = registry
	return nil
}

// initRouters builds the chat and translate routers and the review service
func (d *Dependencies) initRouters(cfg *config.Config) error {
	// A nil *AuditService must not reach the Recorder interface
	var recorder routing.Recorder
	if d.AuditService != nil {
		recorder = d.AuditService
	}

	chat, err := routing.NewRouter(routing.ChatProfile(cfg.Router.ChatOrder), d.ProviderRegistry, d.Logger, recorder)
	if err != nil {
		return err
	}
	translate, err := routing.NewRouter(
		routing.TranslateProfile(cfg.Router.TranslateOrder, cfg.Router.TranslateDefaultTargetLanguage),
		d.ProviderRegistry, d.Logger, recorder)
	if err != nil {
		return err
	}

	d.ChatRouter = chat
	d.TranslateRouter = translate
	d.ReviewService = review.NewService(chat, review.DefaultSystemPrompt, d.Logger)
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	validator := auth.NewValidator(cfg.Auth)
	if validator == nil {
		d.Logger.Warn("no API token or JWT secret configured, API routes are unauthenticated")
		return
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
}

// Profiles returns the routing profiles in use
func (d *Dependencies) Profiles() []routing.Profile {
	var profiles []routing.Profile
	for _, router := range []*routing.Router{d.ChatRouter, d.TranslateRouter} {
		if router != nil {
			profiles = append(profiles, router.Profile())
		}
	}
	return profiles
}

// AuditStats returns the audit writer as a handlers.AuditStatser, or nil
func (d *Dependencies) AuditStats() handlers.AuditStatser {
	if d.AuditService == nil {
		return nil
	}
	return d.AuditService
}

// AuditReader returns the audit service as a handlers.AuditReader, or nil
func (d *Dependencies) AuditReader() handlers.AuditReader {
	if d.AuditService == nil {
		return nil
	}
	return d.AuditService
}

func (d *Dependencies) stopAudit(ctx context.Context) error {
	if d.AuditService == nil {
		return nil
	}

	timeout := defaultAuditDrainTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return d.AuditService.Stop(timeout)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit writer before the pool goes away
	if err := d.stopAudit(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
