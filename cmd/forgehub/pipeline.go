package main

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/forgeload"
	"github.com/forgehub/forgehub/pkg/logging"
	"github.com/forgehub/forgehub/pkg/namespace"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/resolver"
	"github.com/forgehub/forgehub/pkg/solver"
)

// built holds every intermediate product of the load->expand->solve pipeline
// that a subcommand's reporting step needs.
type built struct {
	ns       *namespace.Namespace
	expanded map[object.K]object.Entity
	res      *resolver.Resolver
	tiers    []solver.Tier
	log      logr.Logger
}

// build runs the namespace-to-tiers pipeline shared by expand/compare/apply.
func build(cfg *config.Config, paths []string) (*built, error) {
	log := newLogger(cfg)
	ns := namespace.New(object.NewRegistry())
	ns.Redefine = cfg.RedefinePolicy()
	ns.MaxDepth = cfg.MaxExpansionDepth

	log.V(logging.DebugLevel).Info("loading declared objects", logging.Phase, "load", "paths", paths)
	if err := forgeload.Ingest(ns, paths); err != nil {
		return nil, fmt.Errorf("loading: %w", err)
	}

	expanded, err := ns.Expand()
	if err != nil {
		return nil, fmt.Errorf("expanding: %w", err)
	}
	log.V(logging.DebugLevel).Info("expanded namespace", logging.Phase, "expand", "entities", len(expanded))

	res := resolver.New(expanded)
	tiers, err := solver.Solve(expanded, res)
	if err != nil {
		return nil, fmt.Errorf("solving: %w", err)
	}
	log.Info("solved dependency tiers", logging.Phase, "solve", logging.Tier, len(tiers))

	return &built{ns: ns, expanded: expanded, res: res, tiers: tiers, log: log}, nil
}
