package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/financeflow/api"
	"github.com/seenimoa/financeflow/internal/config"
	"github.com/seenimoa/financeflow/internal/datasource"
	"github.com/seenimoa/financeflow/internal/feed"
	"github.com/seenimoa/financeflow/internal/llm"
	"github.com/seenimoa/financeflow/internal/logging"
	"github.com/seenimoa/financeflow/internal/qa"
	"github.com/seenimoa/financeflow/internal/store"
	"github.com/seenimoa/financeflow/internal/store/firestore"
	"github.com/seenimoa/financeflow/internal/store/mongo"
	"github.com/seenimoa/financeflow/web"
)

const connectTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}

		logger, err := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides config and PORT)")
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var st store.Store
	if s, err := openStore(ctx, cfg.Store); err != nil {
		logger.Error("document store unavailable, serving without it", "driver", cfg.Store.Driver, "error", err)
	} else {
		st = s
		defer func() {
			if err := s.Close(); err != nil {
				logger.Warn("close store", "error", err)
			}
		}()
		logger.Info("document store connected", "driver", cfg.Store.Driver)
	}

	quotes := datasource.NewYFinance(datasource.YFinanceOptions{
		BaseURL:     cfg.Market.BaseURL,
		Timeout:     cfg.Market.Timeout,
		Concurrency: cfg.Market.Concurrency,
		Logger:      logger.With("component", "quotes"),
	})

	var provider llm.LLMProvider
	if p, err := newProvider(cfg.LLM); err != nil {
		logger.Warn("AI processor offline", "error", err)
	} else {
		provider = p
		logger.Info("AI processor online", "model", p.Model())
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := p.Ping(pingCtx); err != nil {
			logger.Warn("AI processor did not answer a ping", "error", err)
		}
		cancel()
	}
	assistant := qa.New(provider,
		qa.WithTemperature(cfg.LLM.Temperature),
		qa.WithLogger(logger.With("component", "qa")),
	)

	fsvc := feed.New(st, quotes, feed.Options{
		MaxItems:    cfg.Feed.MaxItems,
		MaxSymbols:  cfg.Feed.MaxSymbols,
		ContextSize: cfg.QA.ContextSize,
		Logger:      logger.With("component", "feed"),
	})

	dist, err := web.Open(cfg.Web.DistDir)
	if err != nil {
		return err
	}

	srv := api.NewServer(api.Options{
		CORSOrigins:     cfg.API.CORSOrigins,
		RequestTimeout:  cfg.API.RequestTimeout,
		DefaultPageSize: cfg.Feed.DefaultPageSize,
	}, fsvc, assistant, dist, logger)

	return srv.ListenAndServe(ctx, cfg.API.Addr())
}

// openStore connects the configured driver.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cols := store.Collections{News: sc.NewsCollection, Briefs: sc.BriefsCollection}
	switch sc.Driver {
	case config.DriverFirestore:
		return firestore.New(ctx, firestore.Options{
			CredentialsJSON: sc.Firestore.CredentialsJSON,
			KeyFile:         sc.Firestore.KeyFile,
			ProjectID:       sc.Firestore.ProjectID,
			Collections:     cols,
		})
	case config.DriverMongo:
		return mongo.New(ctx, mongo.Options{
			URI:         sc.Mongo.URI,
			Database:    sc.Mongo.Database,
			Collections: cols,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
}

func newProvider(lc config.LLMConfig) (*llm.OpenAIProvider, error) {
	pc := llm.DefaultProviderConfig()
	pc.Name = llm.ProviderGroq
	pc.APIKey = lc.APIKey
	if lc.BaseURL != "" {
		pc.BaseURL = lc.BaseURL
	}
	if lc.Model != "" {
		pc.Model = lc.Model
	}
	if lc.MaxRetries > 0 {
		pc.MaxRetries = lc.MaxRetries
	}
	if lc.Timeout > 0 {
		pc.Timeout = lc.Timeout
	}
	pc.Temperature = lc.Temperature
	return llm.NewOpenAIProvider(pc)
}
