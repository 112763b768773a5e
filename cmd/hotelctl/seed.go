package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"overlook_hotel/internal/app"
	"overlook_hotel/internal/shared"
)

func SeedCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.json>",
		Short: "Bulk-load guests, rooms, staff and reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := app.DecodeSeed(f)
			if err != nil {
				return err
			}

			store, done, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer done()

			svc := app.NewBookingService(store, nil, nil,
				app.WithHousekeepingTurnover(cfg.HousekeepingTurnover))
			log.Info().Int("workers", workers).Str("file", args[0]).Msg("seed starting")

			report, err := app.NewSeeder(svc, workers).Seed(cmd.Context(), data)
			if err != nil {
				return err
			}
			for _, rej := range report.Failed {
				log.Warn().Str("entity", rej.Entity).Str("key", rej.Key).Err(rej.Err).Msg("seed record rejected")
			}
			for entity, n := range report.Created {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %d\n", entity, n)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d records rejected", len(report.Failed))
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", cfg.SeedWorkers, "concurrent writers per phase")
	return cmd
}
