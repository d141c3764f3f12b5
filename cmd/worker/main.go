// Worker consumes decision events from Kafka and forwards them to the OTLP log pipeline.
// Set KAFKA_BROKERS, AUTHZ_EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and OTEL_EXPORTER_OTLP_ENDPOINT.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"entitlement-gate/internal/config"
	"entitlement-gate/internal/platform/logging"
	"entitlement-gate/internal/telemetry/consumer"
	telemetryotel "entitlement-gate/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.AuthzEventsKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.OTLPEndpoint == "" {
		log.Fatal("worker: OTEL_EXPORTER_OTLP_ENDPOINT is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName + "-worker",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stdout, nil)

	c := consumer.NewKafkaConsumer(brokers, cfg.AuthzEventsKafkaTopic, cfg.KafkaGroupID, logger)
	defer c.Close()

	logger.Info("worker: consuming decision events", "topic", cfg.AuthzEventsKafkaTopic, "group", cfg.KafkaGroupID)
	if err := c.Run(ctx, telemetryotel.NewEventEmitter(providers.LoggerProvider)); err != nil {
		logger.Error("worker: stopped with error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker: otel shutdown", "error", err)
	}
	logger.Info("worker: stopped")
}
