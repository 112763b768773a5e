package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"overlook_hotel/internal/app"
	"overlook_hotel/internal/domain"
	"overlook_hotel/internal/shared"
)

func AvailabilityCmd(cfg shared.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Report whether a room is free for [check-in, check-out)",
		RunE: func(cmd *cobra.Command, args []string) error {
			number, _ := cmd.Flags().GetString("room")
			inStr, _ := cmd.Flags().GetString("check-in")
			outStr, _ := cmd.Flags().GetString("check-out")

			in, err := domain.ParseDate(inStr)
			if err != nil {
				return fmt.Errorf("--check-in: %w", err)
			}
			out, err := domain.ParseDate(outStr)
			if err != nil {
				return fmt.Errorf("--check-out: %w", err)
			}

			store, done, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer done()

			q := app.NewQueryService(store, nil, time.Minute)
			room, err := q.GetRoomByNumber(cmd.Context(), number)
			if err != nil {
				return err
			}
			free, err := q.CheckAvailability(cmd.Context(), room.ID, in, out)
			if err != nil {
				return err
			}
			state := "booked"
			if free {
				state = "available"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "room %s %s..%s: %s\n", room.Number, in.Format(domain.DateLayout), out.Format(domain.DateLayout), state)
			return nil
		},
	}
	cmd.Flags().String("room", "", "room number")
	cmd.Flags().String("check-in", "", "YYYY-MM-DD")
	cmd.Flags().String("check-out", "", "YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("check-in")
	_ = cmd.MarkFlagRequired("check-out")
	return cmd
}
