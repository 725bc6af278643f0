package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"football-backend/config"
	"football-backend/controllers"
	"football-backend/database"
	"football-backend/games"
	"football-backend/middleware"
	"football-backend/players"
	"football-backend/rankings"
	"football-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "Optional YAML config file")
	flag.Parse()

	// Load env vars from .env file outside production
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing with system environment variables")
		}
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			log.Printf("config: %v", err)
		}
		log.Fatal("invalid configuration")
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		logger.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		storage := middleware.NewRedisStorage(redis.NewClient(opts), "football:ratelimit:")
		defer storage.Close()
		limiterStorage = storage
		logger.Info("rate limit counters stored in redis")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cacheMetrics := games.NewMetrics()
	if err := cacheMetrics.Register(reg); err != nil {
		logger.Error("register cache metrics", slog.Any("error", err))
		os.Exit(1)
	}

	gameRepo := games.NewPostgresRepository(db)
	playerRepo := players.NewPostgresRepository(db)
	engine := rankings.NewEngine(rankings.NewPostgresRepository(db), cfg.Weights)
	cache := games.NewCache(gameRepo, games.WithLogger(logger), games.WithMetrics(cacheMetrics))

	sweeper, err := games.StartSweeper(cache, cfg.CacheSweepInterval, logger)
	if err != nil {
		logger.Error("start cache sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	defer sweeper.Shutdown()

	gameController := controllers.NewGameController(cache, playerRepo, gameRepo, logger)
	adminController := controllers.NewAdminController(engine, gameRepo, cache, playerRepo, controllers.AdminCredentials{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		JWTSecret:    []byte(cfg.JWTSecret),
		TokenTTL:     cfg.JWTExpiry(),
	}, logger)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.GameRoutes(app, gameController, middleware.RateLimit(cfg.CheckRankLimit, cfg.CheckRankWindow, limiterStorage))
	routes.AdminRoutes(app, adminController, middleware.RequireAdmin([]byte(cfg.JWTSecret)))
	routes.OpsRoutes(app, reg)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", slog.Any("error", err))
		}
	}()

	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Info("server running", slog.String("addr", addr), slog.String("env", cfg.Env))
	if err := app.Listen(addr); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
