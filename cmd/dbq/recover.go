package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openquery/dispatcher/store"
)

func newRecoverCommand() *cobra.Command {
	var staleSeconds int

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Force a one-shot reclaim pass over stale in-flight jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			if staleSeconds > 0 {
				cfg.Admission.StaleThresholdSeconds = staleSeconds
			}

			db, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer db.Close()
			st := store.New(db)

			// A generation no live worker will ever hold reclaims every
			// in-flight row regardless of which process last owned it,
			// matching the one-shot, operator-invoked nature of this command.
			reclaimed, err := st.ReclaimStale(cmd.Context(), uuid.NewString(), cfg.Admission.StaleThreshold())
			if err != nil {
				return err
			}
			cmd.Printf("reclaimed %d job(s)\n", len(reclaimed))
			return nil
		},
	}

	cmd.Flags().IntVar(&staleSeconds, "stale-seconds", 0, "override the configured stale threshold")
	return cmd
}
