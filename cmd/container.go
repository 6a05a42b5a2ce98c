// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, FS, mail, metrics)
// and composes bounded-context containers.
package main

import (
	"context"
	"strings"

	"github.com/Abraxas-365/portal/pkg/config"
	"github.com/Abraxas-365/portal/pkg/database"
	"github.com/Abraxas-365/portal/pkg/fsx"
	"github.com/Abraxas-365/portal/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/portal/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/portal/pkg/iam/iamcontainer"
	"github.com/Abraxas-365/portal/pkg/logx"
	"github.com/Abraxas-365/portal/pkg/metricsx"
	"github.com/Abraxas-365/portal/pkg/notifx"
	"github.com/Abraxas-365/portal/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/portal/pkg/notifx/notifxses"
	"github.com/Abraxas-365/portal/pkg/verification/verificationinfra"
	"github.com/Abraxas-365/portal/pkg/verification/verificationsrv"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileWriter
	Mailer     *notifx.Client
	Registry   *prometheus.Registry
	Metrics    *metricsx.Metrics

	// Bounded-context containers
	Verification *verificationsrv.VerificationService
	IAM          *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, file storage, mail, metrics
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	if c.Config.Database.AutoMigrate {
		if err := database.Migrate(c.Config.Database.URL); err != nil {
			logx.Fatalf("Failed to apply migrations: %v", err)
		}
		logx.Info("  ✅ Migrations applied")
	}

	db, err := database.Connect(c.Config.Database)
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. File storage
	c.initFileStorage()

	// 4. Mail
	c.initMailer()

	// 5. Metrics
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.Metrics = metricsx.New(c.Registry)

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.Mode {
	case "s3":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(cfg), storage.Bucket, storage.Prefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)", storage.Bucket, storage.AWSRegion)

	case "local":
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.GetBasePath())

	default:
		logx.Fatalf("Unknown STORAGE_MODE: %s (use 'local' or 's3')", storage.Mode)
	}
}

func (c *Container) initMailer() {
	n := c.Config.Notifx

	var provider notifx.EmailSender
	switch strings.ToLower(n.Provider) {
	case "ses":
		cfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(n.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider = notifxses.NewSESProvider(ses.NewFromConfig(cfg), n.FromAddress).
			WithConfigurationSet(n.ConfigurationSet)
		logx.Infof("  ✅ SES mailer configured (from: %s, region: %s)", n.FromAddress, n.AWSRegion)

	case "console":
		provider = notifxconsole.NewConsoleProvider()
		logx.Info("  ✅ Console mailer configured")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'ses' or 'console')", n.Provider)
	}

	c.Mailer = notifx.NewClient(provider, n.FromAddress)
}

// ---------------------------------------------------------------------------
// Module composition: each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	issuer := verificationinfra.NewHTTPIssuer(c.Config.Verification, nil)
	c.Verification = verificationsrv.NewVerificationService(issuer, c.Metrics)

	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:         c.DB,
		Redis:      c.Redis,
		FileSystem: c.FileSystem,
		Cfg:        c.Config,
		Mailer:     c.Mailer,
		Codes:      c.Verification,
		Metrics:    c.Metrics,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")
	c.IAM.StartBackgroundServices(ctx)
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
