package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edustop-service/internal/app"
	"edustop-service/internal/config"
	"edustop-service/internal/domain"
	"edustop-service/internal/infra/memory"
	"edustop-service/internal/infra/postgres"
	redisinfra "edustop-service/internal/infra/redis"
	"edustop-service/internal/logger"
	transport "edustop-service/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the EduStop API server",
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
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.GinMode)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret is empty; set JWT_SECRET")
	}

	settings := app.TaskSettings{
		Window:       config.TTLDuration(cfg.Tasks.Window, 20*time.Minute),
		RadiusMeters: cfg.Tasks.RadiusMeters,
		Reward:       cfg.Tasks.Reward,
	}
	cacheTTL := config.TTLDuration(cfg.EduStops.CacheTTL, 10*time.Minute)

	deps := app.TaskServiceDeps{Feed: app.NewRankingFeed()}

	var loader memory.EduStopLoader
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, log)
		if err != nil {
			return err
		}
		defer pool.Close()

		loader = postgres.NewEduStopRepository(pool)
		deps.Tasks = postgres.NewTaskPool(pool)
		deps.Ledger = postgres.NewRankingLedger(pool)
	} else {
		log.Warn().Msg("postgres not configured; serving built-in sample data")
		stops, pool, ledger := sampleData()
		loader = stops
		deps.Tasks = pool
		deps.Ledger = ledger
	}

	if cfg.Redis.Addr != "" {
		client, err := redisinfra.NewClient(ctx, redisinfra.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return err
		}
		defer client.Close()

		deps.EduStops = redisinfra.NewEduStopCache(client, loader, cacheTTL)
		deps.Tokens = redisinfra.NewTokenStore(client, settings.Window)
		deps.Limiter = redisinfra.NewRateLimiter(client, cfg.Tasks.Limit, settings.Window)
	} else {
		log.Warn().Msg("redis not configured; tokens and limits are kept in process memory")
		deps.EduStops = memory.NewEduStopCache(loader, cacheTTL)
		deps.Tokens = memory.NewTokenStore(settings.Window)
		deps.Limiter = memory.NewRateLimiter(cfg.Tasks.Limit, settings.Window)
	}

	router, err := transport.NewRouter(transport.Services{
		Tasks:    app.NewTaskService(deps, settings, log),
		EduStops: app.NewEduStopService(deps.EduStops),
		Ranking:  app.NewRankingService(deps.Ledger, deps.Feed),
	}, transport.RouterOptions{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("task_limit", cfg.Tasks.Limit).
			Dur("task_window", settings.Window).
			Float64("radius_m", settings.RadiusMeters).
			Msg("starting edustop service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleData backs the in-memory mode used for local runs without Postgres.
func sampleData() (*memory.StaticEduStops, *memory.TaskPool, *memory.RankingLedger) {
	stops := memory.NewStaticEduStops(
		domain.EduStop{ID: "edustop-old-town", Name: "Old Town Market Square", Latitude: 52.2497, Longitude: 21.0122},
		domain.EduStop{ID: "edustop-library", Name: "University Library", Latitude: 52.2425, Longitude: 21.0249},
	)
	pool := memory.NewTaskPool(
		domain.Task{
			ID:          "task-math-1",
			Subject:     domain.SubjectMath,
			Title:       "Quick arithmetic",
			Description: "Warm up before the next stop.",
			Questions: []domain.Question{
				{ID: "q1", Kind: domain.QuestionOpen, Content: "What is 7 * 8?", Answers: []string{"56"}},
				{ID: "q2", Kind: domain.QuestionTrueFalse, Content: "17 is a prime number.", Answers: []string{"true"},
					Options: []domain.Option{{Key: "true", Text: "True"}, {Key: "false", Text: "False"}}},
			},
		},
		domain.Task{
			ID:      "task-english-1",
			Subject: domain.SubjectEnglish,
			Title:   "Irregular verbs",
			Questions: []domain.Question{
				{ID: "q1", Kind: domain.QuestionMultipleChoice, Content: "Pick the past forms of \"go\" and \"see\".",
					Answers: []string{"a", "c"},
					Options: []domain.Option{{Key: "a", Text: "went"}, {Key: "b", Text: "goed"}, {Key: "c", Text: "saw"}}},
			},
		},
	)
	ledger := memory.NewRankingLedger()
	ledger.AddUser("demo-user", "demo", 0)
	return stops, pool, ledger
}
