package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var newPassword string

// setPasswordCmd replaces the shared password without knowing the current
// one. It needs access to the database file, not the API.
var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Set or reset the shared password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newPassword == "" {
			return errors.New("--password is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		database, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.SetPassword(cmd.Context(), newPassword); err != nil {
			return fmt.Errorf("set password: %w", err)
		}

		color.New(color.FgGreen).Print("✓ ")
		fmt.Println("Password updated. Existing tokens stay valid until they expire.")
		return nil
	},
}

func init() {
	setPasswordCmd.Flags().StringVar(&newPassword, "password", "", "the new shared password")
}
