package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldkit/internal/config"
	"worldkit/internal/store"
	"worldkit/internal/store/postgres"
	"worldkit/internal/store/sqlite"
)

func mirrorCmd() *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Sync a read-only snapshot of the world into a local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(dsn)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database DSN (default from config, e.g. sqlite://world.db)")
	return cmd
}

func runMirror(dsn string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	if dsn == "" {
		dsn = cfg.Mirror.DSN
	}
	if dsn == "" {
		return fmt.Errorf("no DSN: pass --dsn or set mirror.dsn in %s", config.DefaultPath)
	}

	db, err := openStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := store.Sync(ctx, db, client)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Mirrored: %d upserted, %d pruned\n", result.Upserted, result.Pruned)
	for _, typ := range result.Failed {
		fmt.Fprintf(os.Stderr, "  %s: list failed, rows left untouched\n", typ)
	}
	return nil
}

func openStore(ctx context.Context, dsn string) (store.Store, error) {
	scheme, err := store.Scheme(dsn)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "sqlite":
		return sqlite.New(ctx, dsn)
	case "postgres", "postgresql":
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}
