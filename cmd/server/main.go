package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"growdash/internal/auditlog"
	"growdash/internal/copilot"
	"growdash/internal/copilot/copilotobs"
	"growdash/internal/logger"
	"growdash/internal/news"
	"growdash/internal/server"
	"growdash/internal/storage"
	"growdash/internal/store"
	"growdash/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := store.LoadConfig(*configPath)
	must(err)

	must(logger.Init())
	must(trace.Init())

	if v := os.Getenv("GROWDASH_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		_ = auditlog.CompressOlder(n)
	}

	repo, err := storage.Open(cfg.Database.DSN)
	must(err)

	headlines := news.NewService(cfg)
	advisor := copilotobs.Wrap(copilot.New(cfg, headlines))
	handler := server.NewHandler(repo, advisor)
	srv := server.New(cfg, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Println("Shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Printf("server error: %v", err)
	}

	_ = trace.Shutdown(context.Background())
}
