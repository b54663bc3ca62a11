package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	adminapp "github.com/usampac/admin-web/internal/admin/application"
	admindomain "github.com/usampac/admin-web/internal/admin/domain"
	"github.com/usampac/admin-web/internal/config"
	"github.com/usampac/admin-web/internal/datastore"
	"github.com/usampac/admin-web/internal/infrastructure/messenger"
	mongorepo "github.com/usampac/admin-web/internal/infrastructure/mongo"
	"github.com/usampac/admin-web/internal/infrastructure/postgres"
	redisstore "github.com/usampac/admin-web/internal/infrastructure/redis"
	"github.com/usampac/admin-web/internal/infrastructure/supabase"
	adminhttp "github.com/usampac/admin-web/internal/interfaces/http/admin"
	commonhttp "github.com/usampac/admin-web/internal/interfaces/http/common"
	publichttp "github.com/usampac/admin-web/internal/interfaces/http/public"
	"github.com/usampac/admin-web/internal/interfaces/http/views"
	"github.com/usampac/admin-web/internal/pagecache"
)

const pageCachePrefix = "usampac-admin:"

// Server owns the HTTP lifecycle and is the composition root wiring backends into handlers.
type Server struct {
	logger  *logrus.Logger
	addr    string
	router  http.Handler
	metrics *metrics
	checks  []healthCheck
	closers []closer
}

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type closer struct {
	name  string
	close func(ctx context.Context) error
}

// New builds every backend cfg enables and mounts the public and admin handlers. client may be
// nil when MongoDB is not configured; auditing and failed-notification storage are then off.
func New(ctx context.Context, cfg config.Config, client *mongo.Client) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	srv := &Server{logger: logger, addr: cfg.Addr, metrics: newMetrics()}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.WithError(err).WithField("timezone", cfg.Timezone).Warn("falling back to UTC")
		loc = time.UTC
	}

	renderer, err := views.New(loc)
	if err != nil {
		return nil, err
	}

	supabaseClient, err := supabase.New(supabase.Config{
		URL:       cfg.Supabase.URL,
		AnonKey:   cfg.Supabase.AnonKey,
		JWTSecret: cfg.Supabase.JWTSecret,
		Timeout:   cfg.Supabase.Timeout,
	})
	var sessions *adminapp.SessionService
	switch {
	case err == nil:
		auth := supabase.NewAuth(supabaseClient, supabase.NewTokenVerifier(cfg.Supabase.JWTSecret))
		sessions = adminapp.NewSessionService(auth)
	case errors.Is(err, supabase.ErrMissingConfig):
		logger.Warn("Supabase is not configured; sign-in is disabled")
		sessions = adminapp.NewSessionService(nil)
	default:
		logger.WithError(err).Warn("Supabase URL rejected; sign-in is disabled")
		sessions = adminapp.NewSessionService(unconfiguredAuth{err: err})
	}

	var store datastore.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("reading and writing through PostgreSQL")
		store = pg
		srv.checks = append(srv.checks, healthCheck{name: "postgres", check: pg.Ping})
		srv.closers = append(srv.closers, closer{name: "postgres", close: func(context.Context) error { return pg.Close() }})
	} else if supabaseClient != nil {
		store = supabase.NewStore(supabaseClient)
	}

	var (
		audit    adminapp.AuditLog
		history  adminapp.AuditHistory
		failures messenger.FailureStore
	)
	if client != nil {
		db := client.Database(cfg.MongoDatabase)
		auditRepo := mongorepo.NewAuditRepository(db, cfg.AuditCollection)
		if err := auditRepo.EnsureIndexes(ctx); err != nil {
			logger.WithError(err).Warn("audit indexes could not be created")
		}
		audit, history = auditRepo, auditRepo
		failures = mongorepo.NewFailedNotificationRepository(db, cfg.FailedNotificationCollection)

		srv.checks = append(srv.checks, healthCheck{name: "mongo", check: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}})
		srv.closers = append(srv.closers, closer{name: "mongo", close: client.Disconnect})
	}

	var notifier adminapp.DecisionNotifier
	if n := messenger.New(messenger.Config{
		Endpoint:    cfg.Messenger.Endpoint,
		Destination: cfg.Messenger.Destination,
		Attempts:    3,
		RetryDelay:  time.Second,
		HTTPClient:  &http.Client{Timeout: cfg.Messenger.Timeout},
		Failures:    failures,
		Logger:      logger,
	}); n != nil {
		notifier = n
	}

	cache, err := srv.pageCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := adminapp.Deps{
		Store:    store,
		Schema:   cfg.DataSchema,
		Logger:   logger,
		Audit:    audit,
		Notifier: notifier,
	}
	cookies := commonhttp.NewSessionCookies(cfg.SessionSecret, cfg.SessionCookieSecure)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		router.Use(middleware.RealIP)
	}
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(srv.metrics.middleware)

	router.Get("/healthz", srv.healthHandler())
	router.Handle("/metrics", srv.metrics.handler())

	publichttp.NewHandler(publichttp.Config{
		Logger:             logger,
		Renderer:           renderer,
		Sessions:           sessions,
		Cookies:            cookies,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	}).Register(router)

	adminhttp.NewHandler(adminhttp.Config{
		Logger:        logger,
		Renderer:      renderer,
		Sessions:      sessions,
		Cookies:       cookies,
		Access:        adminapp.NewAccessService(store, cfg.RoleSchema, cfg.RoleCheckMode, logger),
		Reviews:       adminapp.NewReviewService(deps),
		Notifications: adminapp.NewNotificationService(deps),
		Polls:         adminapp.NewPollService(deps),
		Quiz:          adminapp.NewQuizService(deps),
		Audit:         history,
		Cache:         cache,
		Location:      loc,
	}).Register(router)

	srv.router = router
	return srv, nil
}

// pageCache picks Redis when REDIS_URL is set and an in-process store otherwise. A zero TTL
// disables caching.
func (s *Server) pageCache(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*pagecache.Cache, error) {
	if cfg.PageCacheTTL <= 0 {
		return pagecache.New(nil, 0, logger), nil
	}
	if cfg.RedisURL == "" {
		return pagecache.New(pagecache.NewMemoryStore(2*cfg.PageCacheTTL), cfg.PageCacheTTL, logger), nil
	}

	client, err := redisstore.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	s.checks = append(s.checks, healthCheck{name: "redis", check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}})
	s.closers = append(s.closers, closer{name: "redis", close: func(context.Context) error { return client.Close() }})
	return pagecache.New(redisstore.NewPageStore(client, pageCachePrefix), cfg.PageCacheTTL, logger), nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the listener fails or SIGINT/SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.addr).Info("http server listening")
		errChan <- httpServer.ListenAndServe()
	}()

	return s.waitForShutdown(httpServer, errChan)
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, hc := range s.checks {
			if err := hc.check(ctx); err != nil {
				failed[hc.name] = err.Error()
			}
		}
		if len(failed) > 0 {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"errors": failed,
			})
			return
		}
		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (s *Server) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, c := range s.closers {
		if err := c.close(ctx); err != nil {
			s.logger.WithError(err).WithField("backend", c.name).Warn("close failed")
		}
	}
}

func (s *Server) waitForShutdown(httpServer *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		s.logger.WithField("signal", sig.String()).Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("http shutdown failed")
		}
	}

	s.shutdown(context.Background())
	return runErr
}

// unconfiguredAuth reports a configuration problem from every auth operation.
type unconfiguredAuth struct {
	err error
}

func (a unconfiguredAuth) SignInWithPassword(context.Context, string, string) (admindomain.Session, error) {
	return admindomain.Session{}, a.err
}

func (a unconfiguredAuth) Refresh(context.Context, string) (admindomain.Session, error) {
	return admindomain.Session{}, a.err
}

func (a unconfiguredAuth) CurrentUser(context.Context, string) (admindomain.Identity, error) {
	return admindomain.Identity{}, a.err
}

func (a unconfiguredAuth) SignOut(context.Context, string) error {
	return a.err
}
