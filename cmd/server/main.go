package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gridrelay/tictactoe/internal/api/controller"
	apirepository "github.com/gridrelay/tictactoe/internal/api/repository"
	"github.com/gridrelay/tictactoe/internal/api/service"
	"github.com/gridrelay/tictactoe/internal/config"
	"github.com/gridrelay/tictactoe/internal/db"
	"github.com/gridrelay/tictactoe/internal/hub"
	"github.com/gridrelay/tictactoe/internal/logger"
	"github.com/gridrelay/tictactoe/internal/repository"
	"github.com/gridrelay/tictactoe/internal/room"
	"github.com/gridrelay/tictactoe/internal/server"
	"github.com/gridrelay/tictactoe/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file; env vars only when empty")
	flag.Parse()

	ctx := context.Background()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(conf.LogLevel)

	shutdown, err := telemetry.Init(ctx, conf.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("error shutting down telemetry", "error", err)
		}
	}()

	// Match statistics are best effort: without Redis the relay still
	// runs, only /api/stats is unavailable.
	var stats repository.StatsRepository
	if conf.Redis.Enabled {
		rdb, err := db.NewRedisClient(ctx, conf.Redis.Addr())
		if err != nil {
			slog.Warn("redis unavailable, match statistics disabled", "addr", conf.Redis.Addr(), "error", err)
		} else {
			stats = repository.NewStatsRepository(rdb)
		}
	}

	sqlDB, err := db.Connect(conf.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite db: %v", err)
	}
	defer sqlDB.Close()

	userRepo := apirepository.NewUserRepository(sqlDB)
	userService := service.NewUserService(userRepo, conf.JWTSecret)
	userController := controller.NewUserController(userService)
	statsController := controller.NewStatsController(stats)

	opts := []hub.Option{}
	if stats != nil {
		opts = append(opts, hub.WithStats(stats))
	}
	if conf.Relay.EvictEmptyRooms {
		opts = append(opts, hub.WithEviction())
	}

	relay := hub.New(room.NewRegistry(), opts...)
	go relay.Run()

	srv := server.NewServer(relay, userController, statsController)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    ":" + conf.HTTPPort,
		Handler: srv.Engine(),
	}

	go func() {
		slog.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	slog.Info("server exiting")
}
