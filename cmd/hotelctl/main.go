package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"overlook_hotel/internal/adapters/observability"
	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/shared"
	"overlook_hotel/internal/storage/memory"
	mysqlrepo "overlook_hotel/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, "hotelctl")

	rootCmd := &cobra.Command{
		Use:           "hotelctl",
		Short:         "Overlook Hotel operations tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		MigrateCmd(cfg),
		SeedCmd(cfg),
		AvailabilityCmd(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB(cfg shared.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

// openStore honours STORE; the returned func releases the connection.
func openStore(cfg shared.Config) (domain.Store, func(), error) {
	if cfg.Store == shared.StoreMemory {
		log.Warn().Msg("STORE=memory: results are discarded on exit")
		return memory.New(), func() {}, nil
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return mysqlrepo.New(db), func() { _ = db.Close() }, nil
}
