package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medibook/mobile-core/internal/assistant"
	"github.com/medibook/mobile-core/internal/auth"
	"github.com/medibook/mobile-core/internal/config"
	"github.com/medibook/mobile-core/internal/db"
	"github.com/medibook/mobile-core/internal/model"
	"github.com/medibook/mobile-core/internal/reconcile"
	"github.com/medibook/mobile-core/internal/repository"
	"github.com/medibook/mobile-core/internal/service"
	"github.com/medibook/mobile-core/internal/upstream"
)

func main() {
	// 1. Загружаем конфиг из env.
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// 2. Локальный кэш на SQLite через GORM.
	gormDB, err := db.NewCacheDB(cfg.CacheDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("init cache db")
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("auto migrate")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("sql DB")
	}
	defer sqlDB.Close()

	// 4. Репозитории кэша (реализации на GORM).
	doctorCache := repository.NewGormDoctorCache(gormDB)
	apptCache := repository.NewGormAppointmentCache(gormDB)
	userCache := repository.NewGormUserCache(gormDB)
	eventLog := repository.NewGormEventLog(gormDB, time.Now)

	// 5. Клиент REST-бэкенда и фоновая сверка отмен.
	backend := upstream.NewClient(cfg.BackendURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second)
	reconciler := reconcile.NewReconciler(backend, log)

	// 6. Сервисы.
	doctorSvc := service.NewDoctorService(backend, doctorCache, log, time.Now)
	apptSvc := service.NewAppointmentService(backend, doctorSvc, apptCache, eventLog, reconciler, log, time.Now)
	authSvc := service.NewAuthService(backend, userCache, log, time.Now)
	assistantSvc := service.NewAssistantService(assistant.NewResponder(time.Now), eventLog)

	// 7. HTTP-сервер на echo.
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	public := e.Group("/api")
	protected := e.Group("/api", auth.RequireToken(time.Now))

	doctorSvc.RegisterRoutes(public)
	apptSvc.RegisterRoutes(protected)
	authSvc.RegisterRoutes(public, protected)
	assistantSvc.RegisterRoutes(protected)

	log.Info().Str("addr", cfg.ListenAddr).Msg("mobile core listening")

	// 8. Запускаем сервер в горутине.
	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	// 9. Грейсфул-шатдаун по сигналу: гасим HTTP и ждём фоновые отмены.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	reconciler.Wait()
}
