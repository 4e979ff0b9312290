// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/capitalize-ai/prospecting-platform/internal/billing"
	"github.com/capitalize-ai/prospecting-platform/internal/config"
	"github.com/capitalize-ai/prospecting-platform/internal/copywriter"
	"github.com/capitalize-ai/prospecting-platform/internal/enrichment"
	"github.com/capitalize-ai/prospecting-platform/internal/handler"
	"github.com/capitalize-ai/prospecting-platform/internal/llm"
	natsclient "github.com/capitalize-ai/prospecting-platform/internal/nats"
	"github.com/capitalize-ai/prospecting-platform/internal/preferences"
	"github.com/capitalize-ai/prospecting-platform/internal/service"
	"github.com/capitalize-ai/prospecting-platform/internal/store"
	"github.com/capitalize-ai/prospecting-platform/internal/store/memstore"
	"github.com/capitalize-ai/prospecting-platform/internal/store/postgres"
	"github.com/capitalize-ai/prospecting-platform/pkg/logger"
	"github.com/capitalize-ai/prospecting-platform/pkg/tracing"
)

const serviceName = "prospecting-platform"

var logLevel string

func main() {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Prospecting platform API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug,info,warn,error); overrides LOG_LEVEL")

	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	zap.ReplaceGlobals(log.Logger)
	return cfg, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.StoreDriver != config.StorePostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}

			ctx := cmd.Context()
			st, err := postgres.Open(ctx, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.RunMigrations(ctx); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, error) {
	if cfg.StoreDriver != config.StorePostgres {
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}

	st, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := st.RunMigrations(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	if cfg.LLMProvider == string(llm.ProviderOpenAI) && cfg.OpenAIBaseURL != "" {
		return llm.NewOpenAIClientWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	}
	return llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey())
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("starting API server", zap.String("store", cfg.StoreDriver), zap.String("llm", cfg.LLMProvider))

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// Outreach events are optional; without NATS they are dropped.
	var publisher natsclient.Publisher = natsclient.NoopPublisher{}
	var natsPinger handler.Pinger
	if cfg.NATSEnabled {
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()

		streams := natsclient.NewStreamManager(nc)
		if err := streams.EnsureStream(ctx); err != nil {
			return fmt.Errorf("failed to ensure stream: %w", err)
		}
		publisher = streams
		natsPinger = nc
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	modelOpts := copywriter.Options{
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}

	var provider enrichment.Provider
	if cfg.EnrichmentEnabled() {
		unipile, err := enrichment.NewUnipile(enrichment.UnipileConfig{
			BaseURL:   cfg.UnipileDSN,
			APIKey:    cfg.UnipileAPIKey,
			AccountID: cfg.UnipileAccountID,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create enrichment client: %w", err)
		}
		defer unipile.Close()
		provider = unipile
	} else {
		log.Info("LinkedIn enrichment disabled")
	}

	// Initialize services
	ledger := billing.NewLedger(st, billing.Config{
		MonthlyAllowance: cfg.MonthlyCredits,
		TokensPerCredit:  cfg.TokensPerCredit,
	}, log)
	prefs := preferences.NewService(st, log)
	orchestrator := service.NewDraftOrchestrator(
		st,
		copywriter.NewAnalyzer(llmClient, modelOpts, log),
		ledger,
		prefs,
		publisher,
		log,
	).WithDrafter(copywriter.NewDrafter(llmClient, modelOpts, log))

	conversationSvc := service.NewConversationService(st, orchestrator, log)
	messageSvc := service.NewMessageService(st, orchestrator, publisher, log)
	contactSvc := service.NewContactService(st, provider, log)

	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(map[string]handler.Pinger{"store": st, "nats": natsPinger}),
		Conversations: handler.NewConversationHandler(conversationSvc, log),
		Messages:      handler.NewMessageHandler(messageSvc, log),
		Preferences:   handler.NewPreferencesHandler(prefs, log),
		Contacts:      handler.NewContactHandler(contactSvc, log),
		Account:       handler.NewAccountHandler(ledger, log),
	}, handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, log)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
