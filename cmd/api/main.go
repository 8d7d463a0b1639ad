package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanosuguru/go-event-booking-ledger/internal/api"
	"github.com/sanosuguru/go-event-booking-ledger/internal/api/handler"
	"github.com/sanosuguru/go-event-booking-ledger/internal/api/middleware"
	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/config"
	"github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/messaging"
	"github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/ticketpdf"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/auth"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-booking-ledger/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Error("サーバーが異常終了しました", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(ctx context.Context) error {
	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.App.Env))
	m := metrics.Init()

	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("データベース接続エラー: %w", err)
	}
	defer db.Close()
	logger.Info("データベースに接続しました")

	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		return err
	}

	redisClient, err := redisinfra.NewClient(redisinfra.ConfigFrom(&cfg.Redis))
	if err != nil {
		return fmt.Errorf("Redis接続エラー: %w", err)
	}
	defer redisClient.Close()
	logger.Info("Redisに接続しました")

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	wmLogger := messaging.NewZapLoggerAdapter(logger.Named("watermill"))
	streamPublisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: redisClient}, wmLogger)
	if err != nil {
		return fmt.Errorf("Publisher作成エラー: %w", err)
	}
	defer streamPublisher.Close()
	publisher, err := messaging.NewPublisher(streamPublisher, wmLogger)
	if err != nil {
		return err
	}

	// リポジトリとサービス
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	cache := redisinfra.NewAvailabilityCache(redisClient)
	lockManager := redisinfra.NewLockManager(redisClient)

	eventService := application.NewEventService(eventRepo, bookingRepo, cache, cfg.Booking.AvailabilityCacheTTL)
	tickets, err := ticketpdf.NewGenerator("", cfg.Booking.TicketFontPath)
	if err != nil {
		logger.Fatal("チケット用フォントの読み込みに失敗しました", zap.Error(err))
	}
	bookingService := application.NewBookingService(
		txManager, bookingRepo, eventRepo, cache, publisher,
		tickets, cfg.Booking.TicketCodeAttempts,
	)
	statsService := application.NewStatsService(bookingRepo)
	notificationService := application.NewNotificationService(notificationRepo)
	reconciler := application.NewReconciliationService(
		txManager, eventRepo, bookingRepo, lockManager, cache, cfg.Worker.ReconcileLockTTL,
	)

	router, err := messaging.NewRouter(messaging.RouterDeps{
		Logger:      wmLogger,
		Subscribers: streamSubscribers(redisClient, wmLogger),
		Recorder:    notificationService,
	})
	if err != nil {
		return err
	}

	e := newEcho(cfg, m)
	handler.RegisterRoutes(e, handler.Handlers{
		Event:        handler.NewEventHandler(eventService),
		Booking:      handler.NewBookingHandler(bookingService, statsService),
		Notification: handler.NewNotificationHandler(notificationService),
		Admin:        handler.NewAdminHandler(reconciler),
		Health: handler.NewHealthHandler(
			postgres.NewHealthChecker(db),
			redisinfra.NewHealthChecker(redisClient),
		),
	}, tokens)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := router.Run(gctx); err != nil {
			return fmt.Errorf("メッセージルーター実行エラー: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-router.Running()
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
		return nil
	})

	if cfg.Worker.ReconcileEnabled {
		w := worker.NewInventoryReconciler(reconciler, cfg.Worker.ReconcileInterval)
		g.Go(func() error {
			w.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("サーバーをシャットダウンしています...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
		}
		if err := router.Close(); err != nil {
			return fmt.Errorf("メッセージルーター停止エラー: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

func newEcho(cfg *config.Config, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.Metrics))
	return e
}

// streamSubscribers はハンドラーごとにコンシューマーグループを分けた購読者を作る
// 同じハンドラーを複数インスタンスで動かすとメッセージは1つにだけ配送される
func streamSubscribers(client *goredis.Client, wmLogger watermill.LoggerAdapter) messaging.SubscriberFactory {
	return func(handlerName string) (message.Subscriber, error) {
		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "booking-ledger." + handlerName,
		}, wmLogger)
	}
}
