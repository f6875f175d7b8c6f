package main

import (
	"github.com/spf13/cobra"

	"github.com/forgehub/forgehub/pkg/config"
)

func newCompareCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "compare [paths...]",
		Short: "Diff the declared objects under paths against the remote hub without applying anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := build(cfg, args)
			if err != nil {
				return err
			}
			sess, err := newSession(cfg)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg, sess, b, true)
		},
	}
	cfg.RegisterFlags(cmd.Flags())
	return cmd
}
