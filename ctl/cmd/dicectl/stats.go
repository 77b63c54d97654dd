package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "records\t%d\n", s.Records)
			fmt.Fprintf(tw, "created\t%d\n", s.Created)
			fmt.Fprintf(tw, "updated\t%d\n", s.Updated)
			fmt.Fprintf(tw, "deleted\t%d\n", s.Deleted)
			fmt.Fprintf(tw, "evicted\t%d\n", s.Evicted)
			fmt.Fprintf(tw, "sweeps\t%d\n", s.Sweeps)
			fmt.Fprintf(tw, "misses\t%d\n", s.Misses)
			fmt.Fprintf(tw, "eviction_ratio\t%.3f\n", s.EvictionRatio)
			fmt.Fprintf(tw, "sweep_interval\t%s\n", s.SweepInterval)
			return tw.Flush()
		},
	}
}
