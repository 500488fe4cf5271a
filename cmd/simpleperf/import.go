package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/getsentry/simpleperf/internal/nodetree"
	"github.com/getsentry/simpleperf/internal/simpleperf"
	"github.com/getsentry/simpleperf/internal/speedscope"
)

const (
	formatSpeedscope = "speedscope"
	formatTree       = "tree"
)

type (
	errInvalidClock string

	captureTree struct {
		Thread simpleperf.ThreadDescriptor `json:"thread"`
		Root   *nodetree.Node              `json:"root"`
	}

	treeOutput struct {
		Range             simpleperf.Range `json:"range"`
		Tags              []string         `json:"tags"`
		ThreadTimeMessage string           `json:"thread_time_message,omitempty"`
		CaptureTrees      []captureTree    `json:"capture_trees"`
	}
)

func (e errInvalidClock) Error() string {
	return fmt.Sprintf("invalid clock %q, expected %s or %s", string(e), nodetree.GlobalClock, nodetree.ThreadClock)
}

func newImportCommand(c *cli) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import [trace-file]",
		Short: "Convert a trace to speedscope or call tree JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.parse(cmd, args[0])
			if err != nil {
				return err
			}
			clock, err := c.selectedClock(t)
			if err != nil {
				return err
			}

			var v interface{}
			switch format {
			case formatSpeedscope:
				v = speedscope.FromTrace(t, clock)
			case formatTree:
				v = newTreeOutput(t)
			default:
				return fmt.Errorf("invalid format %q, expected %s or %s", format, formatSpeedscope, formatTree)
			}

			if output == "" || output == "-" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(v)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := json.NewEncoder(f).Encode(v); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write to, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", formatSpeedscope, "output format (speedscope or tree)")
	return cmd
}

func newTreeOutput(t *simpleperf.Trace) treeOutput {
	o := treeOutput{
		Range:             t.Range,
		Tags:              t.Tags,
		ThreadTimeMessage: t.ThreadTimeMessage(),
		CaptureTrees:      make([]captureTree, 0, len(t.CaptureTrees)),
	}
	for _, td := range t.Threads() {
		o.CaptureTrees = append(o.CaptureTrees, captureTree{
			Thread: td,
			Root:   t.CaptureTrees[td],
		})
	}
	return o
}
