package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagsCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [trace-file]",
		Short: "List the binaries frames of a trace were found in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.parse(cmd, args[0])
			if err != nil {
				return err
			}
			for _, tag := range t.Tags {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), tag); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
