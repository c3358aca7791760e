package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/stackwatch/resource-notifier/internal/config"
	"github.com/stackwatch/resource-notifier/internal/handler"
	"github.com/stackwatch/resource-notifier/internal/runtime"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With("mode", "service")
	logger.Info("spawning...")

	if err := config.SetDefaults(); err != nil {
		logger.Error("failed to set configuration defaults", slog.Any("error", err))
		os.Exit(1)
	}

	hdl, err := handler.NewHandler(
		handler.WithContext(context.Background()),
		handler.WithLogger(logger.With("component", "notification-handler")))
	if err != nil {
		logger.Error("failed to create notification handler", slog.Any("error", err))
		os.Exit(1)
	}

	rt := runtime.NewRuntime(hdl,
		runtime.WithLogger(logger.With("component", "runtime")))

	h := http.NewServeMux()
	h.HandleFunc(config.Service.Path, rt.ServeHTTP)

	s := &http.Server{
		Handler:      h,
		Addr:         net.JoinHostPort(config.Service.Addr, config.Service.Port),
		WriteTimeout: config.Service.Timeout,
		ReadTimeout:  config.Service.Timeout,
		IdleTimeout:  config.Service.Timeout,
	}

	logger.Info("serving...", "address", s.Addr, "path", config.Service.Path)
	if err := s.ListenAndServe(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
