package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"boardhub/backend/api"
	"boardhub/backend/audit"
	"boardhub/backend/config"
	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository/events"
	"boardhub/backend/repository/sqlstore"
	"boardhub/backend/service"
	"boardhub/backend/service/auth"
	"boardhub/backend/service/boards"
	"boardhub/backend/service/files"
	"boardhub/backend/service/monday"
	"boardhub/backend/service/schedules"
	"boardhub/backend/service/subscribers"
	"boardhub/backend/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "boardhub",
		Short:         "Monday.com boards, subscribers, schedules and file storage API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml)")

	serve := newServeCmd(&configPath)
	root.AddCommand(serve, newUserCmd(&configPath))
	// 不带子命令时等同于 serve
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr string
		dev  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if dev {
				cfg.Log.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return serve(cfg, dev)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&dev, "dev", false, "enable development mode with verbose logging")
	return cmd
}

func serve(cfg config.Config, dev bool) error {
	// 配置日志级别
	if dev {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLog, err := logging.OpenAppLog(cfg.AppLogPath(), cfg.Log.Retain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[AppLog] %v\n", err)
	}
	defer appLog.Close()
	logger := logging.New(cfg.Log.Level, appLog.Writer())
	if dev {
		logger.Info("运行在开发模式 - 显示所有日志")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 1. 事件总线 + 审计日志
	eventBus := events.NewBus()
	eventBus.SetLogger(logger)
	audit.NewRecorder(logger).SubscribeEvents(eventBus)

	// 2. 存储与仓储
	store, err := sqlstore.Open(sqlstore.Config{Path: cfg.Database.Path, Logger: logger, Debug: cfg.Log.SQL}, eventBus)
	if err != nil {
		return err
	}
	defer store.Close()
	repos := store.Repositories()

	// 3. 指标
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	fileObserver, err := files.NewPrometheusObserver("", registry)
	if err != nil {
		return err
	}
	mondayRequests, err := monday.NewRequestCounter(registry)
	if err != nil {
		return err
	}

	// 4. 服务层
	mondayClient := monday.NewClient(monday.ClientConfig{
		APIURL:     cfg.Monday.APIURL,
		APIToken:   cfg.Monday.APIToken,
		APIVersion: cfg.Monday.APIVersion,
		Timeout:    cfg.Monday.Timeout,
		Logger:     logger,
		Requests:   mondayRequests,
	})
	if cfg.Monday.APIToken == "" {
		logger.Warn("monday.api_token is empty; boards and subscribers are served from the database only")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(repos.User(), tokens, eventBus, logger)
	if err := authSvc.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	boardSvc := boards.NewService(repos.Board(), mondayClient,
		monday.NewCache[[]domain.Board](cfg.Monday.CacheSize, cfg.Monday.CacheTTL), logger)
	subscriberSvc := subscribers.NewService(repos.Subscriber(), mondayClient,
		monday.NewCache[[]domain.Subscriber](cfg.Monday.CacheSize, cfg.Monday.CacheTTL), logger)
	scheduleSvc := schedules.NewService(repos.Schedule())

	fileSvc, err := files.NewService(files.Config{Root: cfg.Uploads.Dir, MaxBytes: cfg.Uploads.MaxBytes}, fileObserver, eventBus, logger)
	if err != nil {
		return err
	}
	if err := fileSvc.EnsureRoot(); err != nil {
		return err
	}

	// 5. Facade
	facade := service.NewFacade(authSvc, boardSvc, subscriberSvc, scheduleSvc, fileSvc)
	if appLog != nil {
		facade.SetAppLog(appLog.Path, appLog.StartedAt)
	}

	// 6. 后台任务（看板预热）
	if cfg.Monday.APIToken != "" {
		tasks.NewScheduler(boardSvc, cfg.Monday.RefreshInterval, logger).Start(ctx)
	}

	// 7. 路由
	router := api.NewRouter(facade, api.Options{
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cleanupDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		logger.Info("收到退出信号，正在关闭...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
		// 等审计等异步处理器写完
		eventBus.Close()
		close(cleanupDone)
	}()

	logger.Info("server listening", "addr", srv.Addr, "uploads", fileSvc.Root(), "database", cfg.Database.Path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-cleanupDone
		return fmt.Errorf("listen: %w", err)
	}
	<-cleanupDone
	return nil
}
