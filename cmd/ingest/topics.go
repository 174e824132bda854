package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/hugolhafner/go-ingest/schema"
	"github.com/spf13/cobra"
)

func newTopicsCommand(root *rootOptions) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List the configured topics in execution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			dispatcher, err := buildDispatcher(cfg)
			if err != nil {
				return err
			}

			tiers, err := schema.Tiers(dispatcher.Handlers(), cfg.Pipeline.Ordered)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIER\tTOPIC\tTABLE\tKEY\tDEPENDS ON")
			for i, tier := range tiers {
				for _, h := range tier {
					deps := make([]string, 0, len(h.DependsOn()))
					for _, k := range h.DependsOn() {
						deps = append(deps, k.String())
					}
					fmt.Fprintf(
						w, "%d\t%s\t%s\t%s\t%s\n",
						i, h.Topic(), h.Table().Name, strings.Join(h.Table().Key, ","), strings.Join(deps, ","),
					)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !verify {
				return nil
			}

			l, sync, err := buildLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer sync()

			admin, err := adminClient(cfg.Kafka, l)
			if err != nil {
				return err
			}
			defer admin.Close()

			if err := admin.VerifyTopics(cmd.Context(), dispatcher.Topics()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all topics exist")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check that every topic exists on the cluster.")
	return cmd
}
