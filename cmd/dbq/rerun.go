package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openquery/dispatcher/store"
)

func newRerunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rerun <job-id>",
		Short: "Restore a completed or failed job to pending, for re-execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("job id must be a UUID: %w", err)
			}

			cfg := loadConfig()
			db, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer db.Close()
			st := store.New(db)

			if err := st.MarkRerun(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Println("job marked pending for rerun")
			return nil
		},
	}
}
