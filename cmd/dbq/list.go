package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/store"
)

func newListCommand() *cobra.Command {
	var (
		userFilter   string
		statusFilter string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by owner and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var uid uuid.UUID
			if userFilter != "" {
				parsed, err := uuid.Parse(userFilter)
				if err != nil {
					return fmt.Errorf("--user must be a UUID: %w", err)
				}
				uid = parsed
			}
			status, err := job.ParseStatus(statusFilter)
			if err != nil {
				return err
			}

			cfg := loadConfig()
			db, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer db.Close()
			st := store.New(db)

			jobs, err := st.List(cmd.Context(), uid, status, limit)
			if err != nil {
				return err
			}
			for _, jb := range jobs {
				cmd.Printf("%s\t%s\t%s\t%s\n", jb.ID, jb.UserID, jb.Status, jb.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userFilter, "user", "", "restrict to jobs owned by this user UUID")
	cmd.Flags().StringVar(&statusFilter, "status", "", "restrict to jobs in this status")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of jobs to return")

	return cmd
}
