package main

import (
	"fmt"

	"github.com/hugolhafner/go-ingest/sink"
	"github.com/spf13/cobra"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	var createDatabase bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the sink tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			l, sync, err := buildLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer sync()

			ctx := cmd.Context()
			if createDatabase {
				created, err := sink.EnsureDatabase(ctx, cfg.Database.DSN)
				if err != nil {
					return err
				}
				if created {
					l.Info("Database created")
				}
			}

			db, err := openSink(cfg.Database, cfg.Pipeline.WriteTimeout, l)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrated", len(sink.Models()), "tables")
			return nil
		},
	}

	cmd.Flags().BoolVar(&createDatabase, "create-database", false, "Create the database named in the DSN if it does not exist.")
	return cmd
}
