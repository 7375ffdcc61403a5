package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/store"
)

func newEnqueueCommand() *cobra.Command {
	var (
		userID     string
		dialect    string
		dsn        string
		username   string
		password   string
		query      string
		exportType string
		sshTarget  string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Submit a query as a new pending job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}
			et := job.ExportType(exportType)
			switch et {
			case job.ExportCSV, job.ExportExcel, job.ExportJSON, job.ExportFeather:
			case "":
				et = job.DefaultExportType
			default:
				return fmt.Errorf("unsupported --export %q", exportType)
			}

			cfg := loadConfig()
			db, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer db.Close()
			st := store.New(db)

			id, err := st.Enqueue(cmd.Context(), job.Spec{
				UserID: uid,
				DBCredentials: job.Credentials{
					Dialect:  dialect,
					Username: username,
					Password: password,
					TNS:      dsn,
				},
				QueryText:  query,
				ExportType: et,
				SSHTarget:  sshTarget,
			})
			if err != nil {
				return err
			}
			cmd.Println(id.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owning user UUID (required)")
	cmd.Flags().StringVar(&dialect, "dialect", "", "target database dialect (postgres, mysql, oracle, sqlite)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "connection descriptor for the target database")
	cmd.Flags().StringVar(&username, "db-username", "", "target database username")
	cmd.Flags().StringVar(&password, "db-password", "", "target database password")
	cmd.Flags().StringVar(&query, "query", "", "query text to execute (required)")
	cmd.Flags().StringVar(&exportType, "export", string(job.DefaultExportType), "export format: csv, excel, json, feather")
	cmd.Flags().StringVar(&sshTarget, "ssh-target", "", "hostname to transfer the export to, using the owner's configured SSH settings")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("query")

	return cmd
}
