package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/docuchat/docuchat/api"
	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/generate"
	"github.com/docuchat/docuchat/internal/log"
	"github.com/docuchat/docuchat/internal/memstore"
	"github.com/docuchat/docuchat/internal/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := newLogger(cfg)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(deps)
	return server.Run(ctx, cfg.ListenAddr)
}

// buildDeps assembles the stores, generator and conversation services
// according to the configuration. The returned cleanup releases the
// database pool when one was opened.
func buildDeps(ctx context.Context, cfg *config.Config, logger log.Logger) (api.Deps, func(), error) {
	var (
		auth          chat.AuthProvider
		profiles      chat.ProfileStore
		documents     chat.DocumentStore
		prompts       chat.PromptStore
		conversations chat.ConversationStore
		pool          *pgxpool.Pool
		cleanup       = func() {}
	)

	if cfg.Demo {
		store := memstore.New()
		memstore.Seed(store)
		auth = store
		profiles = store
		documents = store
		prompts = store
		conversations = store
		logger.Info("running in demo mode with seeded in-memory stores")
	} else {
		p, err := postgres.Connect(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return api.Deps{}, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		pool = p
		cleanup = p.Close

		store := postgres.New(p, logger)
		auth = chat.StaticAuth{User: &chat.User{ID: "service", Email: "service@localhost"}}
		profiles = store
		documents = store
		prompts = store
		conversations = store
	}

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		cleanup()
		return api.Deps{}, nil, err
	}

	manager := chat.NewManager(profiles, documents, conversations, logger)
	executor := chat.NewExecutor(conversations, generator, logger)
	controller := chat.NewController(auth, manager, prompts, logger)

	return api.Deps{
		Controller: controller,
		Manager:    manager,
		Executor:   executor,
		Pool:       pool,
		Logger:     logger,
	}, cleanup, nil
}

// buildGenerator constructs the answer generator selected by configuration,
// wrapped with retry and rate limiting.
func buildGenerator(cfg *config.Config, logger log.Logger) (chat.Generator, error) {
	var inner chat.Generator

	switch cfg.GeneratorKind {
	case config.GeneratorSimulated:
		inner = generate.NewSimulated()
	case config.GeneratorOpenAI:
		g, err := generate.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI generator: %w", err)
		}
		inner = g
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidGeneratorKind, cfg.GeneratorKind)
	}

	limit := rate.Limit(cfg.GenerationRate)
	if cfg.GenerationRate <= 0 {
		limit = rate.Inf
	}
	burst := cfg.GenerationBurst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	return generate.NewRetrying(inner, generate.DefaultRetryConfig(), limiter, logger), nil
}
