package main

import (
	"fmt"

	"github.com/forgehub/forgehub/pkg/config"
	"github.com/forgehub/forgehub/pkg/remote"
)

// newSession builds the remote.Session a compare/apply run talks to. The
// wire protocol itself is an external collaborator (SPEC_FULL.md §4.6);
// this just wires the configured endpoint into the minimal HTTP adapter.
func newSession(cfg *config.Config) (remote.Session, error) {
	if cfg.RemoteEndpoint == "" {
		return nil, fmt.Errorf("--remote-endpoint is required")
	}
	sess := remote.NewHTTPSession(cfg.RemoteEndpoint, nil)
	sess.AuthHeader = cfg.RemoteAuthHeader
	return sess, nil
}
