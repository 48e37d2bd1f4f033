package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neonmaj/threadmine/config"
	"github.com/neonmaj/threadmine/data"
	"github.com/neonmaj/threadmine/data/repos"
	"github.com/neonmaj/threadmine/harvest"
	"github.com/neonmaj/threadmine/sources"
)

//go:embed data/migrations/*.sql
var embedMigrations embed.FS

func main() {
	config.LoadConfig()

	opts := slog.HandlerOptions{Level: config.Config.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &opts))
	slog.SetDefault(logger)

	db, err := sqlx.Connect("postgres", config.Config.PostgresURL)
	if err != nil {
		slog.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := data.RunMigrations(db.DB, embedMigrations); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	harvestRepo := repos.NewHarvestRepo(db)
	runRepo := repos.NewRunRepo(db)

	httpClient := &http.Client{Timeout: time.Duration(config.Config.RequestTimeout) * time.Second}
	client := sources.NewClient(logger, httpClient, config.Config.RedditBaseURL, config.Config.UserAgent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	if config.Config.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("serving metrics", "addr", config.Config.MetricsAddr)
			if err := http.ListenAndServe(config.Config.MetricsAddr, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	pipeline := harvest.NewPipeline(logger, client, harvestRepo, runRepo, config.Config.Workers)
	summary, err := pipeline.Run(ctx, harvest.Options{
		Query:         config.Config.Query,
		PostsLimit:    config.Config.PostsLimit,
		CommentsLimit: config.Config.CommentsLimit,
		RepliesLimit:  config.Config.RepliesLimit,
	})
	if err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	slog.Info("database filled",
		"run_id", summary.RunID,
		"posts", summary.Posts,
		"subreddits", summary.Subreddits,
		"comments", summary.Comments,
		"replies", summary.Replies)
}
