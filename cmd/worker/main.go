package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"classattend/internal/attendance"
	"classattend/internal/cache"
	"classattend/internal/config"
	"classattend/internal/directory"
	"classattend/internal/logging"
	"classattend/internal/queue"
	"classattend/internal/store"
)

// Worker consumes marked-attendance events and keeps the summary cache
// fresh: stale entries for the affected students are dropped and recomputed.
func main() {
	cfg := config.Load()

	logg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logg.Closer()
	log := logg.Sugar

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("db connect failed", "err", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classattend:marked")
	}

	dirRepo := directory.NewRepository(db.Client)
	ledger := attendance.NewRepository(db.Client)
	att := attendance.NewService(ledger, dirRepo)
	summaries := cache.NewSummaryCache(redisClient.Client, cfg.SummaryCacheTTL)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalw("queue consume init failed", "err", err)
	}

	log.Info("worker started, waiting for messages")
	for msg := range messages {
		if msg.Type != queue.TypeMarked {
			continue
		}

		var evt queue.MarkedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Warnw("bad marked event payload", "err", err)
			continue
		}

		if err := summaries.Delete(ctx, evt.StudentIDs...); err != nil {
			log.Warnw("cache invalidation failed", "lecture_id", evt.LectureID, "err", err)
			continue
		}

		// Re-warm so the next summary read is a cache hit.
		for _, studentID := range evt.StudentIDs {
			summary, err := att.StudentSummary(ctx, studentID)
			if err != nil {
				log.Warnw("summary recompute failed", "student_id", studentID, "err", err)
				continue
			}
			if err := summaries.Set(ctx, summary); err != nil {
				log.Warnw("summary cache write failed", "student_id", studentID, "err", err)
			}
		}
		log.Infow("summaries refreshed", "lecture_id", evt.LectureID, "students", len(evt.StudentIDs))
	}

	log.Info("worker stopped")
}
