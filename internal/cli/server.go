package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mathsprint-quiz-service/internal/config"
	"mathsprint-quiz-service/internal/infra/memory"
	pgstore "mathsprint-quiz-service/internal/infra/postgres"
	redisinfra "mathsprint-quiz-service/internal/infra/redis"
	"mathsprint-quiz-service/internal/quiz"
	transport "mathsprint-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	reportTTL := config.Duration(cfg.Quiz.ReportTTL, 10*time.Minute)
	var archive quiz.ResultArchive
	if redisClient != nil {
		var backing redisinfra.ReportStore
		if pool != nil {
			backing = pgstore.NewResultStore(pool)
		}
		archive = redisinfra.NewReportArchive(redisClient, backing, reportTTL)
	} else {
		var backing memory.ReportStore
		if pool != nil {
			backing = pgstore.NewResultStore(pool)
		}
		archive = memory.NewReportArchive(backing, reportTTL)
	}

	var sessions quiz.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	settings := quiz.Settings{
		TotalQuestions: cfg.Quiz.TotalQuestions,
		TimeLimit:      config.Duration(cfg.Quiz.TimeLimit, 4*time.Minute),
	}
	feedbackDelay := config.Duration(cfg.Quiz.FeedbackDelay, 1500*time.Millisecond)

	service := quiz.NewGameService(sessions, archive, settings, feedbackDelay)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting mathsprint service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
