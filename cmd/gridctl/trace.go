package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTraceCmd() *cobra.Command {
	var who principalFlags
	cmd := &cobra.Command{
		Use:   "trace <grid-id> <parameter>",
		Short: "Show which layer supplies a grid parameter",
		Long: `trace walks the parameter cascade (instance, user, role, global and
built-in layers) and prints every layer's value for the parameter named by
its configuration key, e.g. pin_header or pagination_values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.Grid(ctx, args[0], who.principal(), who.permissions(), nil)
			if err != nil {
				return err
			}
			trace, err := g.TraceParameter(ctx, args[1])
			if err != nil {
				return err
			}
			if trace.Winner == nil {
				return fmt.Errorf("gridctl: unknown parameter %q", args[1])
			}
			out, err := trace.ToJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	who.register(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(newTraceCmd())
}
