package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-bot-service/internal/app"
	"quiz-bot-service/internal/config"
	"quiz-bot-service/internal/infra/memory"
	"quiz-bot-service/internal/infra/postgres"
	redisinfra "quiz-bot-service/internal/infra/redis"
	transport "quiz-bot-service/internal/transport/http"
	"quiz-bot-service/internal/transport/telegram"
)

// NewServeCmd builds the CLI subcommand that runs the bot and the HTTP API.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz bot and HTTP server",
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
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	store := postgres.NewQuizStore(db)

	var drafts app.DraftStore = memory.NewDraftStore()
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		draftTTL := config.TTLDuration(cfg.Redis.TTL, time.Hour)
		drafts = redisinfra.NewDraftStore(redisClient, draftTTL)
	}
	wizard := app.NewWizard(drafts, store)

	var controller *telegram.Bot
	api, err := tgbot.New(cfg.Telegram.Token, tgbot.WithDefaultHandler(
		func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
			controller.HandleUpdate(ctx, update)
		},
	))
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}
	controller = telegram.New(api, wizard, store, cfg.AdminIDs(), cfg.LaunchableWebAppURL(), logger)

	botCtx, stopBot := context.WithCancel(ctx)
	defer stopBot()
	go func() {
		logger.Info("starting bot long-poll loop")
		api.Start(botCtx)
	}()

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 5*time.Minute)
	cache := memory.NewQuizCache(store, quizTTL)
	apiHandler := transport.NewAPIHandler(cache, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux, cfg.Server.StaticDir)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting http server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	}

	stopBot()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
