package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"videomeet/internal/config"
	"videomeet/internal/database/db_client"
	"videomeet/internal/history"
	"videomeet/internal/http/http_server"
	"videomeet/internal/redis/redis_client"
	"videomeet/internal/services/analytics"
	"videomeet/internal/services/directory"
	"videomeet/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (presence history stream)
	redisClient, err := redis_client.NewRedisClient(ctx, cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres db client + schema
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()
	if err := db_client.InitSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Directory + analytics services
	directorySvc := directory.NewDirectoryService(pgDb)
	analyticsSvc := analytics.NewAnalyticsService(pgDb)

	// 6. Background: meeting-history recorder tailing the presence stream
	recorder := history.NewRecorder(redisClient, pgDb)
	recorder.Run(ctx)

	// 7. Signaling relay; presence changes fan out onto the Redis stream
	wsSrv := ws.NewWsServer(history.NewPublisher(redisClient))

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, http_server.Options{
		ListenPort: cfg.HttpServerPort,
		JwtSecret:  []byte(cfg.JwtSecret),
		JwtTTL:     cfg.JwtExpiresIn,
	}, wsSrv, pgDb, directorySvc, analyticsSvc)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
