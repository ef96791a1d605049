package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"figaro-tab/internal/bot"
	"figaro-tab/internal/config"
	"figaro-tab/internal/figaro"
	"figaro-tab/internal/repository"
	"figaro-tab/internal/service"
)

const jobTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	logger.SetLevel(level)

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	comboRepo := repository.NewComboRepository(db)
	stateRepo := repository.NewStateRepository(db)

	figaroSvc := service.NewFigaroService(figaro.NewClient(cfg.FigaroAPIBase), stateRepo, logger)
	svc := bot.Services{
		Users:  userRepo,
		Sounds: service.NewSoundscapeService(comboRepo, logger),
		Figaro: figaroSvc,
		Dock:   service.NewDockService(stateRepo, logger),
		Digest: service.NewDigestService(figaroSvc),
	}

	telegramBot, err := bot.New(cfg.TelegramToken, svc, logger)
	if err != nil {
		logger.Fatal("bot", "err", err)
	}

	scheduler := service.NewSchedulerService(time.Local, logger)
	if cfg.FigaroSyncInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.FigaroSyncInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := figaroSvc.SyncAll(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("figaro sync", "err", err)
			}
		}); err != nil {
			logger.Fatal("schedule figaro sync", "err", err)
		}
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("digest", "err", err)
			}
		}); err != nil {
			logger.Fatal("schedule digest", "err", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("figaro tab bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("bot stopped with error", "err", err)
		return
	}
	logger.Info("shutdown complete")
}
