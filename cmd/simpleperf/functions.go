package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/getsentry/simpleperf/internal/metrics"
	"github.com/getsentry/simpleperf/internal/nodetree"
)

const maxNumOfExamples = 5

func newFunctionsCommand(c *cli) *cobra.Command {
	var limit uint
	cmd := &cobra.Command{
		Use:   "functions [trace-file]...",
		Short: "List the functions with the most self time across traces",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ma := metrics.NewAggregator(limit, maxNumOfExamples)
			for _, path := range args {
				t, err := c.parse(cmd, path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				clock, err := c.selectedClock(t)
				if err != nil {
					return err
				}
				ma.AddFunctions(nodetree.TopFunctions(t.Roots(), clock, 0), path)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FUNCTION\tPACKAGE\tIN APP\tCOUNT\tSELF TIME (us)\tP75 (us)\tP99 (us)\tWORST")
			for _, f := range ma.ToMetrics() {
				fmt.Fprintf(
					w,
					"%s\t%s\t%s\t%d\t%d\t%.0f\t%.0f\t%s\n",
					f.Name,
					f.Package,
					strconv.FormatBool(f.InApp),
					f.Count,
					f.Sum,
					f.P75,
					f.P99,
					f.Worst,
				)
			}
			return w.Flush()
		},
	}
	cmd.Flags().UintVarP(&limit, "limit", "n", 20, "number of functions to list, 0 for all")
	return cmd
}
