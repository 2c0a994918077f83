package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/davidbarber/barbershop-platform/cmd/mainconfig"
	appconfig "github.com/davidbarber/barbershop-platform/internal/config"
	"github.com/davidbarber/barbershop-platform/internal/notify"
	"github.com/davidbarber/barbershop-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.UseMemoryQueue {
		logger.Error("notify worker cannot run when USE_MEMORY_QUEUE=true; the API process runs the worker inline")
		os.Exit(1)
	}
	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required")
		os.Exit(1)
	}

	awsConfig, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsConfig)
	queue := notify.NewSQSQueue(sqsClient, cfg.NotifyQueueURL)

	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			emailSender = sender
		}
	case "ses":
		if sender := notify.NewSESSender(sesv2.NewFromConfig(awsConfig), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			emailSender = sender
		}
	}
	if emailSender == nil {
		logger.Warn("email provider not configured, using stub sender", "provider", cfg.EmailProvider)
		emailSender = notify.NewStubEmailSender(logger)
	}

	notifier := notify.NewService(emailSender,
		notify.ShopConfig{Name: cfg.ShopName, Email: cfg.ShopEmail}, logger)

	worker := notify.NewWorker(notifier, queue, logger,
		notify.WithWorkerCount(cfg.WorkerCount),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	logger.Info("notify worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notify worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notify worker stopped")
	case <-doneCtx.Done():
		logger.Error("notify worker shutdown timed out", "error", doneCtx.Err())
	}
}
