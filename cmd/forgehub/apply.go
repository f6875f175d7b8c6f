package main

import (
	"github.com/spf13/cobra"

	"github.com/forgehub/forgehub/pkg/config"
)

func newApplyCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "apply [paths...]",
		Short: "Diff the declared objects under paths against the remote hub and apply the changes",
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
			return runPipeline(cmd.Context(), cfg, sess, b, false)
		},
	}
	cfg.RegisterFlags(cmd.Flags())
	return cmd
}
