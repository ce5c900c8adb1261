package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"rollcall/internal/app"
	"rollcall/internal/config"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/store"
)

// Worker consumes alert dispatch outcomes and persists the audit trail.
func main() {
	cfg := config.Load()
	logger := app.NewLogger(cfg.Env)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		logger.Fatal("schema bootstrap failed", zap.Error(err))
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisDialTO)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:alert-outcomes")
	}

	logRepo := notify.NewLogRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != notify.MsgTypeOutcome {
			continue
		}

		var out notify.Outcome
		if err := json.Unmarshal(msg.Body, &out); err != nil {
			logger.Warn("bad outcome payload", zap.Error(err))
			continue
		}

		if err := logRepo.Insert(ctx, out); err != nil {
			logger.Warn("outcome insert failed",
				zap.String("id", out.ID),
				zap.Error(err))
			continue
		}
		logger.Info("outcome recorded",
			zap.String("id", out.ID),
			zap.String("roll_number", out.RollNumber),
			zap.String("result", out.Result))
	}

	logger.Info("worker stopped")
}
