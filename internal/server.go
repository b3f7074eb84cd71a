package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/2beens/healthdash/internal/config"
	"github.com/2beens/healthdash/internal/db"
	"github.com/2beens/healthdash/internal/intervals"
	"github.com/2beens/healthdash/internal/middleware"
	"github.com/2beens/healthdash/internal/misc"
	"github.com/2beens/healthdash/internal/steps"
	"github.com/2beens/healthdash/internal/syncer"
	"github.com/2beens/healthdash/internal/telemetry/metrics"
	"github.com/2beens/healthdash/internal/telemetry/tracing"
	"github.com/2beens/healthdash/internal/training"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config       *config.Config
	apiSecretKey string
	dbPool       *pgxpool.Pool
	redisClient  *redis.Client
	rateLimiter  middleware.RequestRateLimiter

	syncHandler  *syncer.Handler
	stepsHandler *steps.Handler
	miscHandler  *misc.Handler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	IntervalsAPIKey         string
	IntervalsAthleteID      string
	APISecretKey            string
	RedisPassword           string
	DBPassword              string
	HoneycombTracingEnabled bool
	VersionInfo             string
}

// Components are the wired parts of the service, shared by the HTTP server and
// the one-shot sync command.
type Components struct {
	DBPool         *pgxpool.Pool
	RedisClient    *redis.Client
	SyncService    *syncer.Service
	StepsRepo      *steps.Repo
	MetricsManager *metrics.Manager
	PromRegistry   *prometheus.Registry
	OtelShutdown   func()
}

// Close releases the connections opened by NewComponents.
func (c *Components) Close() error {
	c.OtelShutdown()

	var err error
	if c.RedisClient != nil {
		err = multierr.Append(err, c.RedisClient.Close())
	}
	if c.DBPool != nil {
		c.DBPool.Close() // blocking operation
	}
	return err
}

func NewComponents(ctx context.Context, params NewServerParams) (*Components, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBPassword:     params.DBPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrate db: %w", err)
		}
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus("healthdash", pgxpoolCollector)
	metricsManager := metrics.NewManager("healthdash", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "healthdash", rdb)
	if err != nil {
		dbPool.Close()
		return nil, multierr.Append(err, rdb.Close())
	}

	if params.IntervalsAPIKey == "" || params.IntervalsAthleteID == "" {
		log.Errorf("intervals credentials missing, sync requests will fail: %s", intervals.ErrMissingCredentials)
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.IntervalsTimeout(),
	}
	intervalsClient := intervals.NewClient(
		cfg.IntervalsBaseURL,
		params.IntervalsAPIKey,
		params.IntervalsAthleteID,
		tracedHttpClient,
	)

	trainingRepo := training.NewRepo(dbPool)
	syncService := syncer.NewService(syncer.NewServiceParams{
		Source:         intervalsClient,
		Store:          trainingRepo,
		Reader:         trainingRepo,
		Lease:          syncer.NewLease(rdb, params.IntervalsAthleteID, cfg.LeaseTTL()),
		MetricsManager: metricsManager,
		Location:       cfg.Location(),
		WellnessDays:   cfg.WellnessTrailingDays,
	})

	return &Components{
		DBPool:         dbPool,
		RedisClient:    rdb,
		SyncService:    syncService,
		StepsRepo:      steps.NewRepo(dbPool),
		MetricsManager: metricsManager,
		PromRegistry:   promRegistry,
		OtelShutdown:   otelShutdown,
	}, nil
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	components, err := NewComponents(ctx, params)
	if err != nil {
		return nil, err
	}

	development := params.Config.IsDevelopment()
	return &Server{
		config:       params.Config,
		apiSecretKey: params.APISecretKey,
		dbPool:       components.DBPool,
		redisClient:  components.RedisClient,
		rateLimiter:  redis_rate.NewLimiter(components.RedisClient),

		syncHandler:  syncer.NewHandler(components.SyncService, development),
		stepsHandler: steps.NewHandler(components.StepsRepo, components.MetricsManager, development),
		miscHandler:  misc.NewHandler(params.VersionInfo),

		// telemetry
		metricsManager: components.MetricsManager,
		promRegistry:   components.PromRegistry,
		otelShutdown:   components.OtelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("healthdash-router"))

	r.HandleFunc("/sync", s.syncHandler.HandleSync).Methods("POST").Name("sync")
	r.HandleFunc("/sync", s.syncHandler.HandleDashboard).Methods("GET").Name("dashboard")
	r.HandleFunc("/fitness-trend", s.syncHandler.HandleFitnessTrend).Methods("GET").Name("fitness-trend")

	r.HandleFunc("/steps", s.stepsHandler.HandleUpsert).Methods("POST").Name("upsert-steps")
	r.HandleFunc("/steps", s.stepsHandler.HandleList).Methods("GET").Name("list-steps")
	r.HandleFunc("/steps", s.stepsHandler.HandleOptions).Methods("OPTIONS").Name("steps-preflight")

	s.miscHandler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.apiSecretKey)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.RateLimit(s.rateLimiter, middleware.RateLimits{
		GetPerMin:  s.config.RateLimitGetPerMin,
		PostPerMin: s.config.RateLimitPostPerMin,
	}, s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics http server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
