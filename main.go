package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/dsavitskiy/inferform/pkg/form"
	"github.com/dsavitskiy/inferform/pkg/logger"
	"github.com/dsavitskiy/inferform/pkg/predict"
	"github.com/dsavitskiy/inferform/pkg/service"
	"github.com/dsavitskiy/inferform/pkg/web"
)

type Config struct {
	PredictBaseURL     string `env:"PREDICT_BASE_URL,required"`
	ServerAddress      string `env:"SERVER_ADDRESS" envDefault:":8080"`
	MaxUploadSizeBytes int64  `env:"MAX_UPLOAD_SIZE_BYTES" envDefault:"10485760"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"debug"`
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, logger.DefaultOptions)))

	if err := runMain(); err != nil {
		slog.Error("shutting down due to error", logger.Err(err))
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func runMain() error {
	serviceGroup, err := setupServices()
	if err != nil {
		return err
	}

	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			slog.Info("shutting down due to signal", "signal", s.String())
			cancelFn()
		case <-ctx.Done():
		}
	}()

	return serviceGroup.Run(ctx)
}

func setupServices() (service.Group, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}

	slog.SetDefault(slog.New(logger.NewHandler(os.Stderr, &logger.Options{
		Level:      parseLogLevel(cfg.LogLevel),
		TimeFormat: logger.DefaultOptions.TimeFormat,
	})))

	predictClient, err := predict.NewClient(cfg.PredictBaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating predict client: %w", err)
	}

	controller := form.NewController(predictClient)
	picker := form.NewImagePicker()

	server, err := web.NewServer(controller, picker, cfg.MaxUploadSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("creating web server: %w", err)
	}

	var serviceGroup service.Group
	serviceGroup = append(serviceGroup, service.NewWebServer(cfg.ServerAddress, server.Routes()))

	return serviceGroup, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
