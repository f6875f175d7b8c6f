package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
)

type dumpDoc struct {
	Key    string         `json:"key"`
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Exists bool           `json:"exists"`
	Fields map[string]any `json:"fields,omitempty"`
}

func newDumpCmd() *cobra.Command {
	cfg := config.Default()
	cmd := &cobra.Command{
		Use:   "dump kind:name [kind:name...]",
		Short: "Fetch the named objects from the remote hub read-only and render observed state as documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]object.K, len(args))
			for i, a := range args {
				k, err := object.ParseK(a)
				if err != nil {
					return err
				}
				keys[i] = k
			}

			sess, err := newSession(cfg)
			if err != nil {
				return err
			}

			docs, err := fetch(cmd.Context(), sess, object.NewRegistry(), keys)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(docs)
		},
	}
	cfg.RegisterFlags(cmd.Flags())
	return cmd
}

// fetch runs a read-only probe for every key (one batch, one getX call per
// key) and renders each result as a document via RenderObserved's
// default-elision rules, instead of going through the declared-state
// load->expand->solve pipeline build() drives.
func fetch(ctx context.Context, sess remote.Session, reg *object.Registry, keys []object.K) ([]dumpDoc, error) {
	probes := make([]object.Entity, len(keys))
	for i, k := range keys {
		e, err := reg.New(k)
		if err != nil {
			return nil, fmt.Errorf("dump: %s: %w", k, err)
		}
		probes[i] = e
	}

	batch, err := sess.OpenBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("dump: opening read batch: %w", err)
	}
	reads := make([][]remote.Promise, len(probes))
	for i, e := range probes {
		reads[i] = e.EnqueueRead(batch)
	}
	if err := sess.CloseBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("dump: reading: %w", err)
	}

	docs := make([]dumpDoc, len(keys))
	for i, k := range keys {
		doc := dumpDoc{Key: k.String(), Type: string(k.Kind), Name: k.Name}
		var v any
		var readErr error
		for _, p := range reads[i] {
			v, readErr = p.Result()
			if readErr != nil {
				break
			}
		}
		if readErr != nil {
			return nil, fmt.Errorf("dump: reading %s: %w", k, readErr)
		}
		fields, exists := object.RenderObserved(v)
		doc.Exists = exists
		doc.Fields = fields
		docs[i] = doc
	}
	return docs, nil
}
