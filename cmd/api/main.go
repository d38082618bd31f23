package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boostxlresults/intellisend/cmd/mainconfig"
	appconfig "github.com/boostxlresults/intellisend/internal/config"
	"github.com/boostxlresults/intellisend/internal/dispatch"
	"github.com/boostxlresults/intellisend/internal/httpapi"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intellisend API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	// In-memory queue runs the booking agent inside this process; the SQS
	// queue hands messages to the separate worker binary.
	var queue dispatch.Queue
	var agentDeps *mainconfig.AgentDeps
	if cfg.UseMemoryQueue {
		queue = dispatch.NewMemoryQueue(0)
		agentDeps, err = mainconfig.BuildAgent(ctx, cfg, awsCfg, queue, logger)
		if err != nil {
			logger.Error("failed to build booking agent", "error", err)
			os.Exit(1)
		}
		defer agentDeps.Close()
		agentDeps.Worker.Start(ctx)
		logger.Info("booking agent running in-process")
	} else {
		if cfg.InboundQueueURL == "" {
			logger.Error("INBOUND_QUEUE_URL is required unless USE_MEMORY_QUEUE is set")
			os.Exit(1)
		}
		queue = dispatch.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.InboundQueueURL)
	}

	sessions, closeSessions, err := mainconfig.NewSessionStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect session store", "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:          logger,
		Webhook:         httpapi.NewWebhookHandler(dispatch.NewPublisher(queue), logger),
		Admin:           httpapi.NewAdminHandler(sessions, nil, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if agentDeps != nil {
		agentDeps.Worker.Wait()
	}
	logger.Info("server stopped")
}
