package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Houeta/recom-feed/internal/assistant"
	"github.com/Houeta/recom-feed/internal/bot"
	"github.com/Houeta/recom-feed/internal/catalog"
	"github.com/Houeta/recom-feed/internal/config"
	"github.com/Houeta/recom-feed/internal/feed"
	"github.com/Houeta/recom-feed/internal/models"
	"github.com/Houeta/recom-feed/internal/parser"
	"github.com/Houeta/recom-feed/internal/repository/sqlite"
	"github.com/Houeta/recom-feed/internal/services/browsing"
	"github.com/spf13/cobra"
)

type depsFunc func() (*config.Config, *slog.Logger)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openCatalog opens the SQLite catalog at the configured storage path.
func openCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) (sqlite.CatalogRepository, error) {
	repo, err := sqlite.NewRepository(ctx, log, cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog storage: %w", err)
	}

	return repo, nil
}

// openSource builds the catalog source selected in the configuration.
func openSource(ctx context.Context, cfg *config.Config, log *slog.Logger) (catalog.Source, io.Closer, error) {
	switch cfg.Catalog.Source {
	case config.SourceSQLite:
		repo, err := openCatalog(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.SourceHTML:
		return parser.NewParser(log, cfg.Catalog.URL), nopCloser{}, nil
	default:
		return catalog.NewFixture(log, cfg.Catalog.Latency, nil), nopCloser{}, nil
	}
}

func newBotCmd(deps depsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the feed through a Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger := deps()

			source, closer, err := openSource(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			var recomBot *bot.Bot
			registry := browsing.NewRegistry(logger, browsing.Options{
				Source:  source,
				Timeout: cfg.Catalog.Timeout,
				Responder: assistant.RandomResponder{
					Min: cfg.Assistant.MinDelay,
					Max: cfg.Assistant.MaxDelay,
				},
				Listener: func(chatID int64, msg models.Message) {
					recomBot.DeliverReply(chatID, msg)
				},
			})
			defer registry.Close()

			recomBot, err = bot.NewBot(logger, cfg.Tg, cfg.User.Name, registry)
			if err != nil {
				return fmt.Errorf("failed to init bot: %w", err)
			}

			// Log that the application has started.
			logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

			// Start the bot in a goroutine to allow main to listen for signals.
			go recomBot.Start()

			// Wait for the context to be canceled (e.g., by Ctrl+C).
			<-ctx.Done()

			logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
			recomBot.Stop()
			logger.InfoContext(ctx, "Application stopped gracefully.")

			return nil
		},
	}
}

func newFeedCmd(deps depsFunc) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print the ranked feed for the configured user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger := deps()

			source, closer, err := openSource(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			store := feed.NewStore(logger, source, cfg.Catalog.Timeout)
			if _, err = store.Load(ctx, cfg.User.ID); err != nil {
				return err
			}
			store.SetQuery(query)

			return printFeed(cmd.OutOrStdout(), store)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive title filter")

	return cmd
}

func printFeed(w io.Writer, store *feed.Store) error {
	visible := store.Visible()
	if len(visible) == 0 {
		_, err := fmt.Fprintf(w, "No products found for “%s”\n", store.Query())
		return err
	}

	for _, p := range visible {
		if _, err := fmt.Fprintf(w, "%-4s %3d%%  %-40s ₹%-8.2f likes=%d comments=%d\n",
			p.ID, p.MatchPercent(), p.Title, p.Price, p.LikeCount, len(p.Comments)); err != nil {
			return err
		}
	}

	return nil
}

func newSeedCmd(deps depsFunc) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the catalog into the SQLite storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger := deps()

			products := catalog.SampleProducts()
			if from != "" {
				loaded, err := catalog.LoadFixtureFile(from)
				if err != nil {
					return err
				}
				products = loaded
			}

			repo, err := openCatalog(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err = repo.ReplaceCatalog(ctx, products); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products into %s\n", len(products), cfg.StoragePath)

			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "YAML file with products (defaults to the sample catalog)")

	return cmd
}
