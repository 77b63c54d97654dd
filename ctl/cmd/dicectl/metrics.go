package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

func (a *app) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Scrape /metrics and print one line per series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mfs, err := a.client.Metrics(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(mfs))
			for name := range mfs {
				names = append(names, name)
			}
			sort.Strings(names)

			if a.jsonOutput() {
				out := make(map[string]float64, len(names))
				for _, n := range names {
					out[n] = sampleValue(mfs[n])
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, n := range names {
				fmt.Fprintf(tw, "%s\t%s\t%g\n", n, mfs[n].GetType(), sampleValue(mfs[n]))
			}
			return tw.Flush()
		},
	}
}

// sampleValue sums the counter, gauge and untyped samples of a family.
func sampleValue(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
