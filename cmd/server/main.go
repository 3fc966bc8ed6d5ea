package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/janisto/cv-builder/internal/http/docs"
	"github.com/janisto/cv-builder/internal/http/health"
	"github.com/janisto/cv-builder/internal/http/public"
	"github.com/janisto/cv-builder/internal/http/v1/routes"
	"github.com/janisto/cv-builder/internal/platform/auth"
	"github.com/janisto/cv-builder/internal/platform/config"
	"github.com/janisto/cv-builder/internal/platform/events"
	"github.com/janisto/cv-builder/internal/platform/firebase"
	applog "github.com/janisto/cv-builder/internal/platform/logging"
	"github.com/janisto/cv-builder/internal/platform/metrics"
	appmiddleware "github.com/janisto/cv-builder/internal/platform/middleware"
	"github.com/janisto/cv-builder/internal/platform/postgres"
	"github.com/janisto/cv-builder/internal/platform/ratelimit"
	"github.com/janisto/cv-builder/internal/platform/respond"
	"github.com/janisto/cv-builder/internal/platform/tracing"
	"github.com/janisto/cv-builder/internal/platform/validate"
	profilesvc "github.com/janisto/cv-builder/internal/service/profile"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

//	@title						CV Builder API
//	@version					1.0
//	@description				Profile editor, username claims and public CV directory.
//	@BasePath					/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Firebase ID token as "Bearer <token>".
func main() {
	ctx := context.Background()

	cfg, err := config.Load(".")
	if err != nil {
		applog.LogFatal(ctx, "config load failed", err)
	}

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.OTel.Endpoint,
		ServiceName: cfg.OTel.ServiceName,
		Environment: cfg.App.Environment,
		Version:     Version,
		SampleRatio: cfg.OTel.SampleRatio,
	})
	if err != nil {
		applog.LogFatal(ctx, "tracing init failed", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			applog.LogError(ctx, "tracing shutdown error", err)
		}
	}()

	firebaseProjectID := cfg.Firebase.ProjectID
	if firebaseProjectID == "" {
		if cfg.IsDevelopment() {
			firebaseProjectID = "demo-test-project"
			applog.LogWarn(ctx, "using demo-test-project for local development")
		} else {
			applog.LogFatal(ctx, "FIREBASE_PROJECT_ID environment variable is required", nil)
		}
	}

	firebaseClients, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID: firebaseProjectID,
	})
	if err != nil {
		applog.LogFatal(ctx, "firebase init failed", err)
	}
	defer func() {
		if closeErr := firebaseClients.Close(); closeErr != nil {
			applog.LogError(ctx, "firebase close error", closeErr)
		}
	}()

	store, closeStore, err := newStore(ctx, cfg, firebaseClients)
	if err != nil {
		applog.LogFatal(ctx, "profile store init failed", err)
	}
	defer closeStore()

	m := metrics.New()

	publisher := newPublisher(ctx, cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			applog.LogError(ctx, "event publisher close error", err)
		}
	}()

	limiter, closeLimiter := newLimiter(ctx, cfg)
	defer closeLimiter()

	verifier := auth.NewFirebaseVerifier(firebaseClients.Auth)
	profileService := profilesvc.NewObserved(store, m, publisher)

	e := echo.New()
	e.Validator = validate.New()
	e.HTTPErrorHandler = respond.NewHTTPErrorHandler()
	e.IPExtractor = echo.ExtractIPFromRealIPHeader()
	e.Logger = applog.Logger()

	e.Pre(public.Rewrite())
	e.Use(
		appmiddleware.Security("/api-docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		middleware.BodyLimit(1<<20),
		applog.RequestLogger(),
		applog.AccessLogger(),
		m.Middleware(),
		respond.Recoverer(),
	)

	e.GET("/health", health.Handler)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	docs.Register(e, "api-docs/openapi.json")
	public.Register(e, profileService, cfg.App.PublicBaseURL)

	v1 := e.Group("/v1")
	routes.Register(v1, verifier, profileService,
		ratelimit.Middleware(limiter, "availability", m))

	applog.LogInfo(ctx, "server starting",
		slog.String("addr", ":"+cfg.App.Port),
		slog.String("version", Version),
		slog.String("store", cfg.Store.Backend))

	sc := echo.StartConfig{
		Address:         ":" + cfg.App.Port,
		GracefulTimeout: 10 * time.Second,
		BeforeServeFunc: func(s *http.Server) error {
			s.Handler = otelhttp.NewHandler(s.Handler, "http.server")
			s.ReadTimeout = 5 * time.Second
			s.ReadHeaderTimeout = 2 * time.Second
			s.WriteTimeout = 10 * time.Second
			s.IdleTimeout = 60 * time.Second
			s.MaxHeaderBytes = 64 << 10
			return nil
		},
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sc.Start(sigCtx, e); err != nil {
		log.Fatal(err)
	}

	applog.LogInfo(ctx, "server exited")
}

func newStore(ctx context.Context, cfg config.Config, fb *firebase.Clients) (profilesvc.Service, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		if err := postgres.Migrate(cfg.Store.DatabaseURL); err != nil {
			return nil, nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return profilesvc.NewPostgresStore(pool), pool.Close, nil
	case config.BackendMemory:
		applog.LogWarn(ctx, "using in-memory profile store; data is lost on restart")
		return profilesvc.NewMockStore(), func() {}, nil
	case config.BackendFirestore:
		return profilesvc.NewFirestoreStore(fb.Firestore), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newPublisher(ctx context.Context, cfg config.Config) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NopPublisher{}
	}
	pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		applog.LogError(ctx, "kafka publisher disabled", err)
		return events.NopPublisher{}
	}
	return pub
}

func newLimiter(ctx context.Context, cfg config.Config) (ratelimit.Limiter, func()) {
	limit, window := cfg.RateLimit.Availability, cfg.RateLimit.Window
	if cfg.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter(limit, window), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		applog.LogWarn(ctx, "redis unreachable at startup, limiter fails open until it recovers",
			slog.String("addr", cfg.Redis.Addr),
			slog.Any("error", err))
	}
	return ratelimit.NewRedisLimiter(rdb, limit, window), func() {
		if err := rdb.Close(); err != nil {
			applog.LogError(ctx, "redis close error", err)
		}
	}
}
