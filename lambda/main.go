package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/handler"
	"github.com/stackwatch/resource-notifier/internal/runtime"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("mode", "lambda")
	logger.Info("spawned...")

	if err := config.SetDefaults(); err != nil {
		logger.Error("failed to set configuration defaults", slog.Any("error", err))
		os.Exit(1)
	}

	opts := []handler.Option{
		handler.WithContext(ctx),
		handler.WithLogger(logger.With("component", "notification-handler")),
	}
	if name := os.Getenv("TEAMS_WEBHOOK_SECRET_NAME"); name != "" {
		opts = append(opts, handler.WithSecretName(name))
	}
	if bucket := os.Getenv("EVENT_ARCHIVE_S3_BUCKET"); bucket != "" {
		opts = append(opts, handler.WithArchiveBucket(bucket))
	}

	hdl, err := handler.NewHandler(opts...)
	if err != nil {
		logger.Error("failed to create notification handler", slog.Any("error", err))
		os.Exit(1)
	}

	rt := runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")),
		runtime.WithInvocationTimeout(config.Lambda.InvocationTimeout))

	lambda.Start(rt.LambdaForEvent)
}
