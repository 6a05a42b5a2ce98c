package iamcontainer

import (
	"context"
	"errors"

	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/database"
	"github.com/Abraxas-365/portal/pkg/eventx"
	"github.com/Abraxas-365/portal/pkg/eventx/eventxpg"
	"github.com/Abraxas-365/portal/pkg/eventx/eventxredis"
	"github.com/Abraxas-365/portal/pkg/fsx"
	"github.com/Abraxas-365/portal/pkg/iam/auth"
	"github.com/Abraxas-365/portal/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/portal/pkg/iam/iamapi"
	"github.com/Abraxas-365/portal/pkg/iam/identity"
	"github.com/Abraxas-365/portal/pkg/iam/identity/identityinfra"
	"github.com/Abraxas-365/portal/pkg/iam/identitysync"
	"github.com/Abraxas-365/portal/pkg/iam/profile/profileinfra"
	"github.com/Abraxas-365/portal/pkg/iam/provisioning/provisioningsrv"
	"github.com/Abraxas-365/portal/pkg/iam/recovery/recoverysrv"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// ---------------------------------------------------------------------------

type Deps struct {
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileWriter
	Cfg        *config.Config

	// Mailer and Codes are cross-context dependencies injected as interfaces.
	Mailer  notifx.TemplateSender
	Codes   iamapi.CodeIssuer
	Metrics *metricsx.Metrics
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// ---------------------------------------------------------------------------

type Container struct {
	// Stores
	Identities *identityinfra.PostgresStore
	Profiles   *profileinfra.PostgresStore

	// Services
	TokenService        auth.TokenService
	LinkIssuer          *identity.LinkIssuer
	ProvisioningService *provisioningsrv.ProvisioningService
	RecoveryService     *recoverysrv.RecoveryService

	// Triggers
	Queue      eventx.Queue
	Dispatcher *eventx.Dispatcher
	Bridge     *eventxpg.Bridge
	Enforcer   *identitysync.Enforcer
	Propagator *identitysync.Propagator
	Reconciler *identitysync.Reconciler

	// HTTP
	Handlers       *iamapi.Handlers
	AuthMiddleware *auth.TokenMiddleware

	cfg *config.Config
}

// ---------------------------------------------------------------------------
// New: constructs the IAM dependency graph.
// Order matters: stores → services → triggers → handlers.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	cfg := deps.Cfg
	c := &Container{cfg: cfg}

	// ── Stores ───────────────────────────────────────────────────────────

	c.Identities = identityinfra.NewPostgresStore(deps.DB)
	c.Profiles = profileinfra.NewPostgresStore(deps.DB)
	placeholders := profileinfra.NewFSPlaceholderStore(deps.FileSystem)
	links := identityinfra.NewRedisLinkStore(deps.Redis)

	// ── Services ─────────────────────────────────────────────────────────

	auditService := authinfra.NewLogxAuditService()

	c.TokenService = auth.NewJWTService(cfg.Identity.JWTSecret, cfg.Identity.TokenTTL, cfg.Identity.Issuer)
	c.LinkIssuer = identity.NewLinkIssuer(c.Identities, links, cfg.Identity.SignInLinkBase, cfg.Identity.SignInLinkTTL)

	c.ProvisioningService = provisioningsrv.NewProvisioningService(
		c.Identities,
		c.Profiles,
		placeholders,
		deps.Mailer,
		auditService,
		deps.Metrics,
		cfg.Environment,
		cfg.Notifx.SendTimeout,
	)

	c.RecoveryService = recoverysrv.NewRecoveryService(
		c.Identities,
		c.Profiles,
		c.LinkIssuer,
		c.TokenService,
		deps.Mailer,
		auditService,
		deps.Metrics,
		cfg.Environment,
		cfg.Notifx.SendTimeout,
	)

	// ── Triggers ─────────────────────────────────────────────────────────

	c.Queue = eventxredis.NewQueue(deps.Redis, "portal", cfg.Events.Retention)
	c.Dispatcher = eventx.NewDispatcher(c.Queue,
		eventx.WithConcurrency(cfg.Events.Concurrency),
		eventx.WithPollInterval(cfg.Events.PollInterval),
		eventx.WithDequeueTimeout(cfg.Events.DequeueTimeout),
		eventx.WithRetryDelay(cfg.Events.RetryDelay),
		eventx.WithMaxRetries(cfg.Events.MaxRetries),
		eventx.WithShutdownTimeout(cfg.Events.ShutdownTimeout),
		eventx.WithHandlerTimeout(cfg.Identity.CallTimeout),
		eventx.WithVisibilityTimeout(cfg.Events.VisibilityTimeout),
	)

	c.Propagator = identitysync.NewPropagator(c.Identities, c.Profiles, auditService, deps.Metrics)
	c.Enforcer = identitysync.NewEnforcer(c.Identities, c.Profiles, c.Propagator, auditService, deps.Metrics)
	identitysync.Register(c.Dispatcher, c.Enforcer, c.Propagator)

	c.Reconciler = identitysync.NewReconciler(c.Identities, c.Enforcer, cfg.Reconcile.Workers)
	c.Bridge = eventxpg.NewBridge(cfg.Database.URL, database.NotifyChannel, c.Dispatcher)
	if cfg.Reconcile.Enabled {
		c.Bridge.OnReconnect(c.Reconciler.Kick)
	}

	// ── HTTP ─────────────────────────────────────────────────────────────

	var throttle *iamapi.IPRateLimiter
	if cfg.Server.RecoveryRateLimit > 0 {
		throttle = iamapi.NewIPRateLimiter(cfg.Server.RecoveryRateLimit, cfg.Server.RecoveryBurst, 0)
	}
	c.Handlers = iamapi.NewHandlers(c.ProvisioningService, c.RecoveryService, deps.Codes, throttle)
	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)

	logx.Info("✅ IAM container initialized")
	return c
}

// StartBackgroundServices starts the trigger workers, the change listener
// and, when enabled, the reconciliation sweep.
func (c *Container) StartBackgroundServices(ctx context.Context) {
	go func() {
		if err := c.Dispatcher.Start(ctx); err != nil {
			logx.WithError(err).Error("trigger dispatcher stopped")
		}
	}()
	logx.Info("  ✅ Trigger dispatcher started")

	if c.cfg.Events.ListenChanges {
		go func() {
			if err := c.Bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logx.WithError(err).Error("change listener stopped")
			}
		}()
		logx.Info("  ✅ Change listener started")
	}

	if c.cfg.Reconcile.Enabled {
		go c.Reconciler.Run(ctx, c.cfg.Reconcile.Interval)
		logx.Infof("  ✅ Reconciliation sweep every %s", c.cfg.Reconcile.Interval)
	}
}
