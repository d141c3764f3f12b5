package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"entitlement-gate/internal/audit"
	audithandler "entitlement-gate/internal/audit/handler"
	authzgate "entitlement-gate/internal/authz/gate"
	authzhandler "entitlement-gate/internal/authz/handler"
	"entitlement-gate/internal/authz/metrics"
	"entitlement-gate/internal/authz/service"
	"entitlement-gate/internal/config"
	devicehandler "entitlement-gate/internal/device/handler"
	healthhandler "entitlement-gate/internal/health/handler"
	"entitlement-gate/internal/platform/logging"
	"entitlement-gate/internal/security"
	"entitlement-gate/internal/server"
	"entitlement-gate/internal/server/interceptors"
	"entitlement-gate/internal/telemetry"
	telemetryotel "entitlement-gate/internal/telemetry/otel"
	"entitlement-gate/internal/telemetry/producer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	providers.SetGlobal()

	var logger *slog.Logger
	if cfg.OTLPEndpoint != "" {
		logger = logging.New(cfg.LogLevel, os.Stdout, providers.LoggerProvider.Logger(cfg.ServiceName))
	} else {
		logger = logging.New(cfg.LogLevel, os.Stdout, nil)
	}
	slog.SetDefault(logger)

	st, err := openStores(cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if st.db != nil {
		registry.MustRegister(collectors.NewDBStatsCollector(st.db, "entitlement"))
	}
	m := metrics.New(registry)

	otelEvents := telemetryotel.NewEventEmitter(providers.LoggerProvider)
	emitter := telemetry.Fanout{otelEvents}
	kafkaProducer := producer.NewKafkaProducer(cfg.AuthzEventsKafkaBrokersList(), cfg.AuthzEventsKafkaTopic)
	if kafkaProducer != nil {
		emitter = append(emitter, kafkaProducer)
		logger.Info("decision events: kafka enabled", "topic", kafkaProducer.Topic())
	}

	engine := service.NewEngine(st.accounts, st.devices, st.sessions, service.Options{
		MaxDevices:                  cfg.MaxDevices,
		SessionTTL:                  cfg.SessionTTL(),
		RecheckCapacityOnReactivate: cfg.RecheckCapacityOnReactivate,
		Emitter:                     emitter,
		Metrics:                     m,
		Logger:                      logger,
	})
	gate := authzgate.New(engine, authzgate.Options{
		Bypass:     cfg.AuthzBypass,
		SessionTTL: cfg.SessionTTL(),
		Audit:      audit.NewLogger(st.audit, interceptors.ClientIP, m.AuditWriteFailuresTotal.Inc),
		Emitter:    emitter,
		Metrics:    m,
		Logger:     logger,
	})

	var pinger healthhandler.Pinger
	if st.db != nil {
		pinger = st.db
	}
	health := healthhandler.NewServer(pinger, authzhandler.ServiceName)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	skip := map[string]bool{
		"/" + healthpb.Health_ServiceDesc.ServiceName + "/Check": true,
		"/" + healthpb.Health_ServiceDesc.ServiceName + "/List":  true,
	}
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors.TelemetryUnary(otelEvents, skip)),
	)
	server.RegisterServices(grpcServer, server.Deps{Gate: gate, Health: health})

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr, "max_devices", engine.MaxDevices(), "store", cfg.StoreBackend)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		var operatorAuth func(http.Handler) http.Handler
		if cfg.OperatorRoutesEnabled() {
			pub, err := security.ParsePublicKey(cfg.OperatorJWTPublicKey)
			if err != nil {
				log.Fatalf("operator jwt public key: %v", err)
			}
			verifier, err := security.NewTokenVerifier(pub, cfg.OperatorJWTIssuer, cfg.OperatorJWTAudience)
			if err != nil {
				log.Fatalf("operator jwt verifier: %v", err)
			}
			operatorAuth = interceptors.HTTPAuth(verifier)
		}
		router := server.NewHTTPRouter(server.HTTPDeps{
			Routes: []server.RouteRegistrar{
				authzhandler.NewHTTPHandler(gate),
			},
			OperatorRoutes: []server.RouteRegistrar{
				devicehandler.NewHandler(st.devices),
				audithandler.NewHandler(st.audit),
			},
			OperatorAuth:   operatorAuth,
			Health:         health,
			MetricsHandler: metrics.Handler(registry),
			Metrics:        m,
			Logger:         logger,
		})
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("http serve: %v", err)
			}
		}()
	}

	<-ctx.Done()

	logger.Info("shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}
	grpcServer.GracefulStop()

	// Let in-flight EmitAsync calls finish before the sinks close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		logger.Warn("kafka producer close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("otel shutdown", "error", err)
	}
	logger.Info("servers stopped")
}
