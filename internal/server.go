package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/crestline/estatesite/internal/admins"
	"github.com/crestline/estatesite/internal/appointments"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/config"
	"github.com/crestline/estatesite/internal/db"
	"github.com/crestline/estatesite/internal/middleware"
	"github.com/crestline/estatesite/internal/notify"
	"github.com/crestline/estatesite/internal/properties"
	"github.com/crestline/estatesite/internal/telemetry/metrics"
	"github.com/crestline/estatesite/internal/telemetry/tracing"
	"github.com/crestline/estatesite/internal/uploads"
	"github.com/crestline/estatesite/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	authService         *auth.Service
	adminsService       *admins.Service
	appointmentsService *appointments.Service
	propertiesService   *properties.Service
	uploadsStore        *uploads.Store

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	JWTSecret               string
	PostgresPassword        string
	SMTPPassword            string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     params.PostgresPassword,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("estatesite", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "estatesite-backend")
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(params.JWTSecret, cfg.TokenTTL.Duration, cfg.TokenIssuer)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	mailSender, err := newMailer(cfg, params.SMTPPassword)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}

	uploadsStore, err := uploads.NewStore(cfg.UploadsRootPath)
	if err != nil {
		return nil, fmt.Errorf("uploads store: %w", err)
	}

	accountsRepo := auth.NewAccountsRepo(dbPool)

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		authService:         auth.NewService(accountsRepo, tokens, cfg.PasswordCost),
		adminsService:       admins.NewService(accountsRepo, cfg.PasswordCost),
		appointmentsService: appointments.NewService(appointments.NewRepo(dbPool), mailSender, cfg.CompanyEmail, metricsManager),
		propertiesService:   properties.NewService(properties.NewRepo(dbPool), cfg.ListingCacheSize),
		uploadsStore:        uploadsStore,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

type mailer interface {
	Send(ctx context.Context, msg notify.Message) error
}

func newMailer(cfg *config.Config, smtpPassword string) (mailer, error) {
	if !cfg.NotifyEnabled {
		log.Info("notifications disabled, emails will only be logged")
		return notify.LogMailer{}, nil
	}
	smtpMailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: smtpPassword,
		From:     cfg.MailFrom,
		Timeout:  cfg.MailTimeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	return smtpMailer, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("estatesite-router"))

	detailedErrors := !s.config.IsProduction()

	auth.NewHandler(s.authService, s.metricsManager, detailedErrors).SetupRoutes(r)
	admins.NewHandler(s.adminsService, detailedErrors).SetupRoutes(r)
	appointments.NewHandler(s.appointmentsService, detailedErrors).SetupRoutes(r)
	properties.NewHandler(s.propertiesService, detailedErrors).SetupRoutes(r)
	uploads.NewHandler(s.uploadsStore, s.metricsManager, detailedErrors).SetupRoutes(r)

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET", "OPTIONS").Name("health")

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "route not found",
		})
	})

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.RequestID())
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONOK(w, map[string]any{
		"status":  "ok",
		"version": s.versionInfo,
	})
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
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
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

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
