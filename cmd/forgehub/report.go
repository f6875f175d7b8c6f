package main

import (
	"context"
	"fmt"
	"time"

	"github.com/forgehub/forgehub/pkg/changereport"
	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/logging"
	"github.com/forgehub/forgehub/pkg/metrics"
	"github.com/forgehub/forgehub/pkg/processor"
	"github.com/forgehub/forgehub/pkg/remote"
)

// runPipeline drives the processor over b.tiers with sess, printing a
// per-entity report and returning a non-nil error (and non-zero exit, via
// cobra) if any entity settled to FAILED.
func runPipeline(ctx context.Context, cfg *config.Config, sess remote.Session, b *built, compareOnly bool) error {
	var ins *metrics.Instruments
	if cfg.MetricsAddr != "" {
		srv, err := metrics.StartServer(cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		ins, err = metrics.New()
		if err != nil {
			return fmt.Errorf("building metrics instruments: %w", err)
		}
	}

	proc := &processor.Processor{
		Session:  sess,
		Resolver: b.res,
		Registry: b.ns.Registry,
		Options: processor.Options{
			ChunkSize:         cfg.ChunkSize,
			BatchDeadline:     cfg.BatchDeadline,
			CompareOnly:       compareOnly,
			SkipPhantoms:      cfg.SkipPhantoms,
			PromoteDiscovered: cfg.PromoteDiscovered,
		},
	}

	b.log.Info("starting processor run", logging.Phase, "apply", logging.Tier, len(b.tiers))
	result, err := proc.Run(ctx, b.tiers)
	if err != nil {
		return err
	}

	for _, diag := range result.Diagnostics {
		fmt.Println("note:", diag)
	}

	failures := 0
	for _, r := range result.Reports {
		printReport(r)
		recordReport(ctx, ins, r)
		if r.State == changereport.Failed {
			b.log.Info("entity failed", logging.Key, r.Entity.Key().String(), logging.FailReason, r.FailReason)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d entities failed", failures, len(result.Reports))
	}
	return nil
}

func printReport(r *changereport.Report) {
	switch r.State {
	case changereport.Applied:
		if len(r.Changes) == 0 {
			fmt.Printf("OK    %s  (no changes)\n", r.Entity.Key())
			return
		}
		fmt.Printf("OK    %s  (%d change(s))\n", r.Entity.Key(), len(r.Changes))
		for _, c := range r.Changes {
			fmt.Printf("        %s: %s\n", c.Op, c.Description)
		}
	case changereport.Failed:
		fmt.Printf("FAIL  %s  (%s)\n", r.Entity.Key(), r.FailReason)
	default:
		fmt.Printf("?     %s  (%s)\n", r.Entity.Key(), r.State)
	}
}

func recordReport(ctx context.Context, ins *metrics.Instruments, r *changereport.Report) {
	if ins == nil {
		return
	}
	ins.EntitiesRead(ctx, 1)
	ins.EntitiesCompared(ctx, 1)
	switch r.State {
	case changereport.Applied:
		ins.EntitiesApplied(ctx, 1)
	case changereport.Failed:
		ins.EntitiesFailed(ctx, r.FailReason, 1)
	}
}
