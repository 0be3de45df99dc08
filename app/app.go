package app

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-auth-starter"
	"github.com/goliatone/go-auth-starter/billing"
	"github.com/goliatone/go-auth-starter/config"
	"github.com/goliatone/go-auth-starter/database"
	"github.com/goliatone/go-auth-starter/httpapi"
	"github.com/goliatone/go-auth-starter/logging"
	"github.com/goliatone/go-auth-starter/mailer"
	"github.com/goliatone/go-auth-starter/metrics"
	"github.com/goliatone/go-auth-starter/middleware/clientip"
	"github.com/goliatone/go-auth-starter/middleware/ratelimit"
	"github.com/goliatone/go-auth-starter/tasks"
)

// App holds every long lived dependency. It is built once by the
// executables and passed around explicitly.
type App struct {
	Config   *config.Config
	Logger   *logging.Adapter
	DB       *bun.DB
	Redis    redis.UniversalClient
	Repo     auth.RepositoryManager
	Tokens   *auth.TokenServiceImpl
	Codec    *auth.TimedTokenCodec
	Queue    *tasks.Queue
	Billing  *billing.Store
	Registry *prometheus.Registry
	Metrics  *metrics.Collectors
	Activity auth.ActivitySink

	Authenticator *auth.Authenticator
	ResetInit     *auth.InitializePasswordResetHandler
	ResetFinalize *auth.FinalizePasswordResetHandler
	Invite        *auth.InviteUserHandler
	Registration  *auth.CompleteRegistrationHandler
	Removal       *auth.RemoveUsersHandler
	CreateUser    *auth.CreateUserHandler
}

// Option overrides a dependency built by New
type Option func(*App)

// WithDB uses an already open database
func WithDB(db *bun.DB) Option {
	return func(a *App) {
		a.DB = db
	}
}

// WithRedis uses an already connected redis client
func WithRedis(client redis.UniversalClient) Option {
	return func(a *App) {
		a.Redis = client
	}
}

// WithLogger replaces the JSON stdout logger
func WithLogger(logger *logging.Adapter) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// New validates cfg and wires the application
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, goerrors.New("config is required", goerrors.CategoryBadInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.Logger == nil {
		a.Logger = logging.NewAdapter(logging.NewLogger(cfg.LogLevel, cfg.ServiceName, cfg.Env))
	}

	if a.DB == nil {
		db, err := database.Open(database.Options{
			Driver:      cfg.Database.Driver,
			DSN:         cfg.Database.DSN,
			Debug:       cfg.Database.Debug,
			PingTimeout: cfg.Database.PingTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.DB = db
	}

	if a.Redis == nil {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid redis_url")
		}
		a.Redis = redis.NewClient(redisOpts)
	}

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.NewCollectors()
	a.Metrics.Register(a.Registry)

	a.Activity = auth.ActivitySinks{
		a.Logger.ActivitySink(),
		a.Metrics.ActivitySink(),
	}

	a.Repo = auth.NewRepositoryManager(a.DB, nil)
	if err := a.Repo.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "repository manager is not initialized")
	}
	a.Tokens = auth.NewTokenService(
		[]byte(cfg.JWTSecretKey),
		cfg.AccessTokenTTL(),
		cfg.RefreshTokenTTL(),
		auth.WithTokenLogger(a.Logger),
	)
	a.Codec = auth.NewTimedTokenCodec([]byte(cfg.SecretKey))
	a.Queue = tasks.NewQueue(a.Redis, cfg.Queue.Name)
	a.Billing = billing.NewStore(a.DB)

	deliverer := tasks.NewEnqueuer(a.Queue)

	a.Authenticator = auth.NewAuthenticator(a.Repo, a.Tokens).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.ResetInit = auth.NewInitializePasswordResetHandler(a.Repo, a.Codec, deliverer).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.ResetFinalize = auth.NewFinalizePasswordResetHandler(a.Repo, a.Codec).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.Invite = auth.NewInviteUserHandler(a.Repo, a.Codec, deliverer, cfg.UserUnusablePassword).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.Registration = auth.NewCompleteRegistrationHandler(a.Repo, a.Codec).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.Removal = auth.NewRemoveUsersHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)
	a.CreateUser = auth.NewCreateUserHandler(a.Repo)

	return a, nil
}

// HTTP builds the server for the API. Request metrics, panic recovery
// and the client address run on the fiber app ahead of the router.
func (a *App) HTTP() router.Server[*fiber.App] {
	var controller *httpapi.Controller

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               a.Config.ServiceName,
			DisableStartupMessage: true,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return httpapi.FiberErrorHandler(controller)(c, err)
			},
		})
	})

	app := srv.WrappedRouter()
	app.Use(recover.New())
	app.Use(a.Metrics.Middleware())
	app.Use(clientip.New())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(a.Registry)))

	limiter := ratelimit.NewRedisLimiter(a.Redis, a.Config.RateLimit.LoginLimit, a.Config.RateLimit.Window, "")

	controller = httpapi.RegisterRoutes(srv.Router(),
		httpapi.WithLogger(a.Logger),
		httpapi.WithDebug(a.Config.Env == "dev"),
		httpapi.WithRepository(a.Repo),
		httpapi.WithAuthenticator(a.Authenticator),
		httpapi.WithPasswordReset(a.ResetInit, a.ResetFinalize),
		httpapi.WithInvites(a.Invite, a.Registration),
		httpapi.WithRemoval(a.Removal),
		httpapi.WithBilling(a.Billing),
		httpapi.WithLoginLimiter(ratelimit.New(ratelimit.Config{
			Limiter: limiter,
			Logger:  a.Logger,
		})),
	)

	return srv
}

// Sender picks SMTP when a mail server is configured, the log sender
// otherwise.
func (a *App) Sender() mailer.Sender {
	if a.Config.Mail.Server == "" {
		return mailer.NewLogSender(a.Logger)
	}
	return mailer.NewSMTPSender(mailer.Options{
		Server:   a.Config.Mail.Server,
		Port:     a.Config.Mail.Port,
		Username: a.Config.Mail.Username,
		Password: a.Config.Mail.Password,
		UseTLS:   a.Config.Mail.UseTLS,
		UseSSL:   a.Config.Mail.UseSSL,
	})
}

// Worker builds the delivery worker
func (a *App) Worker(sender mailer.Sender) *tasks.Worker {
	if sender == nil {
		sender = a.Sender()
	}
	return tasks.NewWorker(a.Queue, a.Repo.Users(), sender, tasks.WorkerOptions{
		From:          a.Config.Mail.DefaultSender,
		PublicBaseURL: a.Config.HTTP.PublicBaseURL,
		MaxAttempts:   a.Config.Queue.MaxAttempts,
		Logger:        a.Logger,
		Observe:       a.Metrics.ObserveDelivery,
	})
}

// Migrate applies pending schema migrations
func (a *App) Migrate(ctx context.Context) (int, error) {
	return database.Migrate(ctx, a.DB)
}

// Seed creates the configured admin and member accounts
func (a *App) Seed(ctx context.Context) (int, error) {
	return auth.Seed(ctx, a.Repo, a.Logger,
		auth.SeedAccount{
			Email:    a.Config.Seed.AdminEmail,
			Password: a.Config.Seed.AdminPassword,
			Role:     auth.RoleAdmin,
		},
		auth.SeedAccount{
			Email:    a.Config.Seed.MemberEmail,
			Password: a.Config.Seed.MemberPassword,
			Role:     auth.RoleMember,
		},
	)
}

// Close releases the database and redis connections
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
