package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gcodewriter/pkg/flavor"
)

func newFlavorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flavors",
		Short: "List the supported firmware flavors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FLAVOR\tDESCRIPTION\tAXIS\tTOOL PREFIX")
			for _, f := range flavor.All() {
				d := flavor.Lookup(f)
				axis := d.ExtrusionAxis
				if d.Motion == flavor.MotionLaser {
					axis = "laser"
				} else if axis == "" {
					axis = "-"
				}
				prefix := d.ToolPrefix
				if prefix == "" {
					prefix = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f, d.Description, axis, prefix)
			}
			return tw.Flush()
		},
	}
}
