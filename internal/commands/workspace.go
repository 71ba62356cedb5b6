package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/spendguard-dev/spendguard/internal/baseline"
	"github.com/spendguard-dev/spendguard/internal/categories"
	"github.com/spendguard-dev/spendguard/internal/config"
	"github.com/spendguard-dev/spendguard/internal/engine"
	"github.com/spendguard-dev/spendguard/internal/logger"
	"github.com/spendguard-dev/spendguard/internal/storage"
	"github.com/spendguard-dev/spendguard/internal/storage/postgres"
)

const (
	configFile = "spendguard.yaml"
	rulesFile  = "rules/category-rules.csv"

	// dsnEnv overrides the configured Postgres connection string, so the
	// credential can stay out of spendguard.yaml.
	dsnEnv = "SPENDGUARD_POSTGRES_DSN"
)

// workspace wires a project directory into a running engine: configuration,
// category rules, the transaction store, and the baseline store.
type workspace struct {
	root   string
	cfg    *config.Config
	store  storage.TransactionStore
	engine *engine.Engine
	log    zerolog.Logger
	closer func()
}

// openWorkspace loads the project at dir. Without a Postgres DSN the
// workspace runs on the in-memory store, which only lives for one
// invocation.
func openWorkspace(ctx context.Context, dir string) (*workspace, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	// Optional; a missing .env is not an error.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	log := logger.New()

	cfg := config.Default()
	cfgPath := filepath.Join(root, configFile)
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	cats := categories.NewService(categories.DefaultRules())
	rulesPath := filepath.Join(root, rulesFile)
	if _, err := os.Stat(rulesPath); err == nil {
		cats, err = categories.Load(rulesPath)
		if err != nil {
			return nil, err
		}
	}

	dsn := cfg.Postgres.DSN
	if env := os.Getenv(dsnEnv); env != "" {
		dsn = env
	}

	var (
		store     storage.TransactionStore
		persister baseline.Persister
		closer    = func() {}
	)
	if dsn != "" {
		pg, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		store, persister, closer = pg, pg, pg.Close
	} else {
		mem := storage.NewMemoryStore()
		store, persister = mem, mem
		log.Warn().Msg("no postgres dsn configured; results will not persist between runs")
	}

	eng := engine.New(engine.Params{
		Config:     cfg,
		Store:      store,
		Baselines:  baseline.NewStore(cfg.Baseline.SignatureRetention, persister, log),
		Categories: cats,
		Log:        log,
	})

	return &workspace{
		root:   root,
		cfg:    cfg,
		store:  store,
		engine: eng,
		log:    log,
		closer: closer,
	}, nil
}

func (w *workspace) Close() {
	w.closer()
}
