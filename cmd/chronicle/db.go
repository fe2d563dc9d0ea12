package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"chronicle/internal/config"
	"chronicle/internal/store"
	"chronicle/internal/store/postgres"
	"chronicle/internal/store/sqlite"
	"chronicle/internal/telemetry"
)

// project bundles what most subcommands need: config, an open backend and
// the tracing shutdown hook.
type project struct {
	cfg      *config.ProjectConfig
	db       store.Backend
	shutdown func(context.Context) error
}

func openProject(ctx context.Context) (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := setupLogging(cfg.Logging.Level); err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, "chronicle")
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		shutdown(ctx)
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		shutdown(ctx)
		return nil, err
	}
	return &project{cfg: cfg, db: db, shutdown: shutdown}, nil
}

func (p *project) Close(ctx context.Context) {
	if err := p.db.Close(ctx); err != nil {
		logrus.Warnf("chronicle: closing database: %v", err)
	}
	if err := p.shutdown(ctx); err != nil {
		logrus.Warnf("chronicle: flushing traces: %v", err)
	}
}

// loadStore returns the conversation's store, or an empty one if nothing
// has been saved yet.
func (p *project) loadStore(ctx context.Context) (*store.Store, error) {
	doc, err := p.db.Load(ctx, p.cfg.Conversation)
	if errors.Is(err, store.ErrNotFound) {
		return store.New(), nil
	}
	if err != nil {
		return nil, err
	}
	return store.FromDocument(doc)
}

func (p *project) save(ctx context.Context, st *store.Store) error {
	return p.db.Save(ctx, p.cfg.Conversation, st.Serialize())
}

// resolver layers --variant T=V pairs over the config's canonical map.
func (p *project) resolver(pairs []string) (store.Resolver, error) {
	fixed := store.FixedResolver{}
	for turn, variant := range p.cfg.Canonical {
		fixed[turn] = variant
	}
	overrides, err := parseVariantPairs(pairs)
	if err != nil {
		return nil, err
	}
	for turn, variant := range overrides {
		fixed[turn] = variant
	}
	return fixed, nil
}

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Backend, error) {
	dsn := cfg.Database.DSN
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database DSN %q", dsn)
	}
}

func setupLogging(configured string) error {
	level := configured
	if logLevel != "" {
		level = logLevel
	}
	if level == "" {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	return nil
}

func parseVariantPairs(pairs []string) (map[int]int, error) {
	out := make(map[int]int, len(pairs))
	for _, pair := range pairs {
		turnText, variantText, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid variant %q: expected turn=variant", pair)
		}
		turn, err := strconv.Atoi(strings.TrimSpace(turnText))
		if err != nil || turn < 0 {
			return nil, fmt.Errorf("invalid variant %q: bad turn", pair)
		}
		variant, err := strconv.Atoi(strings.TrimSpace(variantText))
		if err != nil || variant < 0 {
			return nil, fmt.Errorf("invalid variant %q: bad variant", pair)
		}
		out[turn] = variant
	}
	return out, nil
}
