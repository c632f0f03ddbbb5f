package main

import (
	"fmt"
	"log/slog"

	"github.com/kalambet/kvault/internal/autotag"
	"github.com/kalambet/kvault/internal/config"
	"github.com/kalambet/kvault/internal/search"
	"github.com/kalambet/kvault/internal/storage"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

// app bundles the components every command works against. One instance is
// shared by all servers in a process.
type app struct {
	cfg       config.Config
	store     *storage.Store
	search    *search.Engine
	suggester *autotag.Suggester
}

func openApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	suggester, err := newSuggester(cfg.Tagging.KeywordsFile)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Storage.DataDir,
		storage.WithSuggester(suggester),
		storage.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	engine := search.New(store,
		search.WithSnippetLength(cfg.Search.SnippetLength),
		search.WithLogger(logger),
	)

	return &app{cfg: cfg, store: store, search: engine, suggester: suggester}, nil
}

func newSuggester(keywordsFile string) (*autotag.Suggester, error) {
	if keywordsFile == "" {
		return autotag.NewSuggester(nil), nil
	}
	categories, err := autotag.LoadCategories(keywordsFile)
	if err != nil {
		return nil, fmt.Errorf("loading tagging.keywords_file: %w", err)
	}
	return autotag.NewSuggester(categories), nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp loads config, opens the app for the duration of fn and closes it.
func withApp(fn func(a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := openApp(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()
	return fn(a)
}
