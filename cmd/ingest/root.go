package main

import (
	ingest "github.com/hugolhafner/go-ingest"
	"github.com/hugolhafner/go-ingest/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rc := &cobra.Command{
		Use:   "ingest",
		Short: "Stream football data from Kafka into postgres",
		Long: `ingest consumes the football data topics, validates every record,
resolves its references and upserts accepted records into postgres.

Configuration is read from config.yaml (or --config), a .env file and
INGEST_<SECTION>_<KEY> environment variables.`,
		Version:       ingest.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rc.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file to read from.")

	rc.AddCommand(newRunCommand(opts))
	rc.AddCommand(newMigrateCommand(opts))
	rc.AddCommand(newTopicsCommand(opts))

	return rc
}

// load reads and validates the configuration. An invalid configuration
// never reaches a pipeline.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
