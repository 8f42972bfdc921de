package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"shared-notes/internal/sweeper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Permanently delete notes trashed longer than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		removed, err := sweeper.New(database, cfg.RetentionWindow, nil).SweepNow(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}

		color.New(color.FgGreen).Print("✓ ")
		fmt.Printf("Removed %d note(s) trashed more than %s ago\n", removed, cfg.RetentionWindow)
		return nil
	},
}
