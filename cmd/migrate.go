package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the oasis table",
	Long:  "Creates the database file and the oasis table if they do not exist yet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("schema ready",
			zap.String("action", "initdb"),
			zap.String("database_path", cfg.Store.DatabasePath),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
