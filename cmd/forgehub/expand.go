package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/forgeload"
	"github.com/forgehub/forgehub/pkg/namespace"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/suite"
)

func newExpandCmd() *cobra.Command {
	cfg := config.Default()
	var suitePath, runFilter string

	cmd := &cobra.Command{
		Use:   "expand [paths...]",
		Short: "Load, expand, and solve the declared objects under paths, printing the resulting tiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if suitePath != "" {
				return runSuite(cfg, args, suitePath, runFilter)
			}
			return runExpand(cfg, args)
		},
	}
	cfg.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&suitePath, "suite", "", "assert a suite file's template calls expand to their declared expectations, instead of printing tiers")
	cmd.Flags().StringVar(&runFilter, "run", "", `restrict --suite to matching cases: "suite-regex//case-regex", or a bare regex matched against suite and case names`)
	return cmd
}

func runExpand(cfg *config.Config, paths []string) error {
	b, err := build(cfg, paths)
	if err != nil {
		return err
	}
	for _, diag := range b.ns.Diagnostics {
		fmt.Println("warning:", diag)
	}
	for i, tier := range b.tiers {
		fmt.Printf("tier %d:\n", i)
		for _, e := range tier {
			fmt.Printf("  %s  (%s)\n", e.Key(), e.Origin())
		}
	}
	if phantoms := b.res.Phantoms(); len(phantoms) > 0 {
		fmt.Println("phantom references:")
		for _, p := range phantoms {
			fmt.Printf("  %s  (referenced at %s)\n", p.Key(), p.Origin())
		}
	}
	return nil
}

func runSuite(cfg *config.Config, paths []string, suitePath, runFilter string) error {
	ns := namespace.New(object.NewRegistry())
	ns.Redefine = cfg.RedefinePolicy()
	ns.MaxDepth = cfg.MaxExpansionDepth
	if err := forgeload.Ingest(ns, paths); err != nil {
		return fmt.Errorf("loading: %w", err)
	}

	s, err := suite.Load(suitePath)
	if err != nil {
		return err
	}

	filter, err := suite.NewFilter(runFilter)
	if err != nil {
		return err
	}

	results := suite.RunFiltered(ns, s, filter)
	failures := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Printf("SKIP  %s\n", r.Name)
		case r.Passed():
			fmt.Printf("PASS  %s\n", r.Name)
		default:
			failures++
			fmt.Printf("FAIL  %s\n", r.Name)
			if r.Err != nil {
				fmt.Printf("      error: %v\n", r.Err)
			}
			for _, m := range r.Missing {
				fmt.Printf("      missing: %s:%s\n", m.Type, m.Name)
			}
		}
	}
	if failures > 0 {
		return fmt.Errorf("suite %s: %d of %d cases failed", s.Name, failures, len(results))
	}
	return nil
}
