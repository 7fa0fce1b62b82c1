package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/xpense/internal/backup"
	"github.com/Veraticus/xpense/internal/cli"
	"github.com/Veraticus/xpense/internal/config"
	"github.com/Veraticus/xpense/internal/csvimport"
	"github.com/Veraticus/xpense/internal/ledger"
	"github.com/Veraticus/xpense/internal/model"
	"github.com/Veraticus/xpense/internal/normalize"
	"github.com/Veraticus/xpense/internal/report"
	"github.com/Veraticus/xpense/internal/service"
	"github.com/Veraticus/xpense/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is an open database plus the ledger loaded from it.
type session struct {
	store  *storage.SQLiteStorage
	ledger *ledger.Ledger
	cfg    config.Config
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}

// loadConfig resolves the configuration from the global viper instance.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStorage opens and migrates the configured database.
func openStorage(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// openSession opens the database and loads the ledger with configured import,
// backup and checkpoint behavior.
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []ledger.Option{
		ledger.WithImporter(csvimport.New(
			csvimport.WithDateFormats(cfg.Import.DateFormats),
			csvimport.WithMatcherOptions(matcherOptions(cfg)...),
		)),
		ledger.WithDecodeOptions(backup.WithStrict(cfg.Backup.Strict)),
	}

	if cfg.Checkpoint.Enabled && store.Path() != storage.MemoryPath {
		manager, err := store.NewCheckpointManager()
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
		}
		opts = append(opts, ledger.WithCheckpointer(manager))
	}

	l, err := ledger.Open(ctx, store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	slog.Debug("Opened ledger",
		"database", store.Path(),
		"expenses", len(l.Expenses()),
		"categories", len(l.Categories()))

	return &session{store: store, ledger: l, cfg: cfg}, nil
}

func matcherOptions(cfg config.Config) []normalize.MatcherOption {
	return []normalize.MatcherOption{
		normalize.WithMatchMode(cfg.Import.CategoryMatch),
		normalize.WithFuzzyFallback(cfg.Import.FuzzyCategories),
	}
}

// resolveCategory finds a category by exact id first, then by name using the
// configured matcher.
func resolveCategory(cfg config.Config, categories []model.Category, ref string) (model.Category, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Category{}, fmt.Errorf("%w: category is required", model.ErrInvalidExpense)
	}
	if c, ok := model.FindCategory(categories, ref); ok {
		return c, nil
	}
	if c, ok := normalize.NewCategoryMatcher(categories, matcherOptions(cfg)...).Match(ref); ok {
		return c, nil
	}
	return model.Category{}, fmt.Errorf("%w: %q", ledger.ErrCategoryNotFound, ref)
}

// parsePeriod turns --month/--all flags into a report period. An empty month
// means the month containing now.
func parsePeriod(month string, all bool, now time.Time) (report.Period, error) {
	if all {
		return report.AllTime(), nil
	}
	if month == "" {
		return report.MonthOf(now), nil
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return report.Period{}, fmt.Errorf("invalid month %q (want YYYY-MM): %w", month, err)
	}
	return report.Month(t.Year(), int(t.Month()))
}

// expandFiles expands glob patterns. Patterns with no match are kept when they
// name an existing file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}

	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

func out(cmd *cobra.Command, format string, args ...any) {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		slog.Warn("Failed to write output", "error", err)
	}
}

// confirmer prompts on the command's streams unless yes is set.
func confirmer(cmd *cobra.Command, yes bool) service.Confirmer {
	if yes {
		return cli.AutoConfirm{Answer: true}
	}
	return cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

func notifier(cmd *cobra.Command) service.Notifier {
	return cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}
