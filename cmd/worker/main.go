package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/boostxlresults/intellisend/cmd/mainconfig"
	appconfig "github.com/boostxlresults/intellisend/internal/config"
	"github.com/boostxlresults/intellisend/internal/dispatch"
	"github.com/boostxlresults/intellisend/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting intellisend booking worker", "env", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	if cfg.InboundQueueURL == "" {
		logger.Error("INBOUND_QUEUE_URL is required")
		os.Exit(1)
	}
	queue := dispatch.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.InboundQueueURL)

	deps, err := mainconfig.BuildAgent(ctx, cfg, awsCfg, queue, logger)
	if err != nil {
		logger.Error("failed to build booking agent", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	deps.Worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down booking worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		deps.Worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("booking worker stopped")
	case <-doneCtx.Done():
		logger.Error("booking worker shutdown timed out", "error", doneCtx.Err())
	}
}
