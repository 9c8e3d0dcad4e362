package main

import (
	"log"
	"os"

	"github.com/gpexpress/backend/internal/config"
	"github.com/gpexpress/backend/internal/db"
	"github.com/gpexpress/backend/internal/model"
	"github.com/gpexpress/backend/internal/realtime"
	"github.com/gpexpress/backend/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load", zap.Error(err))
	}

	broker := realtime.New(cfg.RedisAddr)
	defer broker.Close()

	srv := server.New(nil, broker, cfg, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	addr := ":" + port

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- srv.Start(addr)
	}()

	// The server accepts traffic while the database comes up; repositories
	// return ErrDBNotReady until the injection below lands.
	go func() {
		conn, err := db.Connect(cfg)
		if err != nil {
			logger.Error("db connect", zap.Error(err))
			return
		}
		if err := conn.AutoMigrate(
			&model.DeliveryRequest{},
			&model.Annonce{},
			&model.Chat{},
			&model.ChatMessage{},
			&model.LivraisonEtape{},
		); err != nil {
			logger.Error("auto migrate", zap.Error(err))
		}
		srv.SetDB(conn)
		logger.Info("database ready")
	}()

	if err := <-errCh; err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
