package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-neighborhood-backend/api"
	"smart-neighborhood-backend/pkg/config"
	"smart-neighborhood-backend/pkg/database"
	"smart-neighborhood-backend/pkg/notify"
	"smart-neighborhood-backend/pkg/reminder"
	"smart-neighborhood-backend/pkg/zlog"

	"go.uber.org/zap"
)

func main() {
	// 加载并验证配置
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	zlog.Init(cfg.LogFile, cfg.Debug)
	defer zlog.Sync()

	// 初始化数据库
	db := database.NewDatabase(database.DatabaseConfig{
		UseLocalDB:  cfg.UseLocalDB,
		PostgresDSN: cfg.PostgresDSN,
		Debug:       cfg.Debug,
	})
	defer db.Close()

	// 组装提醒链路：发送器 → 扫描器 → 调度器
	emitter := notify.NewEmitter(db)
	scanner := reminder.NewScanner(db, emitter, cfg.ReminderHorizonDays)
	scheduler := reminder.NewScheduler(scanner, cfg.ReminderInterval)

	router := api.NewRouter(cfg, db, emitter, scanner)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler.Start()

	// 优雅退出：先停调度器，再关HTTP服务
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		zlog.Info("shutdown signal received")
		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Bool("local_db", cfg.UseLocalDB))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}
