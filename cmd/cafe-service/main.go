package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cafe-oms/internal/app"
	"github.com/vladislavdragonenkov/cafe-oms/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if os.Getenv("CAFE_LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}
}

func main() {
	setupLogger()
	cfg := app.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"api_addr":     cfg.APIAddr,
		"metrics_addr": cfg.MetricsAddr,
		"version":      version.String(),
	}).Info("запускаем cafe-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("cafe-service остановлен")
}
