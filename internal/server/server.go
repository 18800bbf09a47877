package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aman-churiwal/media-quota/internal/circuitbreaker"
	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/aman-churiwal/media-quota/internal/handler"
	"github.com/aman-churiwal/media-quota/internal/healthcheck"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/middleware"
	"github.com/aman-churiwal/media-quota/internal/ratelimit"
	"github.com/aman-churiwal/media-quota/internal/repository"
	"github.com/aman-churiwal/media-quota/internal/retention"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

type Server struct {
	router     *gin.Engine
	config     *config.Config
	db         *storage.Database
	redis      *storage.RedisClient
	log        logrus.FieldLogger
	metrics    *metrics.Metrics
	limiter    ratelimit.Limiter
	zones      map[string]ratelimit.Zone
	checker    *healthcheck.Checker
	logWriter  *middleware.RequestLogWriter
	retention  *retention.Scheduler
	httpServer *http.Server

	authService  *service.AuthService
	planService  *service.PlanService
	usageService *service.UsageService

	usageHandler   *handler.UsageHandler
	mediaHandler   *handler.MediaHandler
	planHandler    *handler.PlanHandler
	webhookHandler *handler.WebhookHandler
	systemHandler  *handler.SystemHandler
}

// Wires repositories, services and handlers over the given stores. redis may
// be nil, in which case the memory limiter is used and plan lookups are not
// cached.
func New(cfg *config.Config, db *storage.Database, redis *storage.RedisClient, log logrus.FieldLogger, m *metrics.Metrics) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Repositories
	usageRepo := repository.NewUsageRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subsRepo := repository.NewSubscriptionRepository(db)
	logRepo := repository.NewRequestLogRepository(db)

	// Services
	authService := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	planService := service.NewPlanService(planRepo, subsRepo, redis, log)
	usageService := service.NewUsageService(usageRepo, mediaRepo, planService, m, log)
	mediaService := service.NewMediaService(mediaRepo, usageService, planService, m, log)
	subscriptionService := service.NewSubscriptionService(subsRepo, planService, cfg.Webhook.Secret, log)

	limiter := ratelimit.New(cfg.RateLimit, redis, log, m)

	var breaker *circuitbreaker.CircuitBreaker
	if fb, ok := limiter.(*ratelimit.FallbackLimiter); ok {
		breaker = fb.Breaker()
	}

	checker := healthcheck.NewChecker(healthcheck.Config{
		Interval: time.Duration(cfg.Health.IntervalSeconds) * time.Second,
		Timeout:  time.Duration(cfg.Health.TimeoutSeconds) * time.Second,
	}, log)
	checker.Register("database", true, db.Ping)
	if redis != nil {
		checker.Register("redis", false, redis.Ping)
	}

	s := &Server{
		router:    gin.New(),
		config:    cfg,
		db:        db,
		redis:     redis,
		log:       log,
		metrics:   m,
		limiter:   limiter,
		zones:     ratelimit.ZonesFromConfig(cfg.RateLimit.Zones),
		checker:   checker,
		logWriter: middleware.NewRequestLogWriter(logRepo, cfg.Retention.BufferSize, log),
		retention: retention.NewScheduler(logRepo, cfg.Retention.Schedule, cfg.Retention.RequestLogDays, log),

		authService:  authService,
		planService:  planService,
		usageService: usageService,

		usageHandler:   handler.NewUsageHandler(usageService),
		mediaHandler:   handler.NewMediaHandler(mediaService),
		planHandler:    handler.NewPlanHandler(planService, subscriptionService, logRepo),
		webhookHandler: handler.NewWebhookHandler(subscriptionService),
		systemHandler:  handler.NewSystemHandler(checker, breaker, version),
	}

	// Client addresses come from the socket unless a listed proxy forwarded the request
	if err := s.router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.WithError(err).Error("invalid trusted proxies, trusting none")
		s.router.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Logger(s.log))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(s.logWriter.Middleware())
	s.router.Use(middleware.Authenticate(s.authService))
}

// Admission for one zone
func (s *Server) limit(zone string) gin.HandlerFunc {
	return middleware.RateLimit(s.limiter, s.zones[zone], s.metrics, s.log)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.limit(config.ZonePublic), s.systemHandler.Health)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/plans", s.limit(config.ZonePublic), s.planHandler.List)
		api.GET("/session", s.limit(config.ZoneAuth), middleware.RequireSubject(), s.planHandler.Session)
		api.POST("/webhooks/payment", s.limit(config.ZonePayment), s.webhookHandler.Payment)

		usage := api.Group("/usage", s.limit(config.ZoneAPI), middleware.RequireSubject())
		{
			usage.GET("", s.usageHandler.GetCurrent)
			usage.POST("/reconcile", s.usageHandler.Reconcile)
			usage.GET("/history", s.usageHandler.History)
		}

		media := api.Group("/media")
		{
			media.GET("", s.limit(config.ZoneAPI), middleware.RequireSubject(), s.mediaHandler.List)

			writes := media.Group("", s.limit(config.ZoneUpload), middleware.RequireSubject())
			writes.POST("", s.mediaHandler.Upload)
			writes.DELETE("/:id", s.mediaHandler.Delete)
			writes.POST("/:id/transformations", s.mediaHandler.Transform)
		}
	}
}

// Starts the background workers: health probes, the request log writer and
// the retention job.
func (s *Server) StartBackground(ctx context.Context) error {
	s.checker.Start()
	s.logWriter.Start()
	return s.retention.Start(ctx)
}

func (s *Server) Run() error {
	addr := ":" + s.config.Server.Port
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.log.WithFields(logrus.Fields{
		"addr":        addr,
		"environment": s.config.Server.Environment,
		"limiter":     s.config.RateLimit.Backend,
	}).Info("starting media quota service")

	return s.httpServer.ListenAndServe()
}

// Stops accepting requests, then drains the background workers
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.retention.Stop()
	s.logWriter.Stop()
	s.checker.Stop()

	return err
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

// Seeds the plan table from config
func (s *Server) SeedPlans(ctx context.Context) error {
	return s.planService.Seed(ctx, s.config.Plans)
}

func (s *Server) UsageService() *service.UsageService {
	return s.usageService
}

func (s *Server) AuthService() *service.AuthService {
	return s.authService
}
