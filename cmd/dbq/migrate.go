package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the job store schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			db, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer db.Close()
			cmd.Println("schema up to date")
			return nil
		},
	}
}
