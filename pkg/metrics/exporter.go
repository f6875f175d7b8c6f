package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

const (
	namespace         = "forgehub"
	readHeaderTimeout = 10 * time.Second
)

// Server exposes the process's instruments on /metrics for Prometheus to
// scrape, and owns the otel MeterProvider backing them.
type Server struct {
	provider *metric.MeterProvider
	srv      *http.Server
}

// StartServer installs a Prometheus-backed global MeterProvider and starts
// an HTTP server on addr (e.g. ":9090") serving /metrics. Call Shutdown to
// tear both down.
func StartServer(addr string) (*Server, error) {
	exporter, err := prometheus.New(
		prometheus.WithNamespace(namespace),
		prometheus.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("metrics: creating prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	srv := &Server{provider: provider, srv: httpSrv}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			otel.Handle(err)
		}
	}()

	return srv, nil
}

// Shutdown stops the HTTP server and flushes the MeterProvider.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics: shutting down http server: %w", err)
	}
	return s.provider.Shutdown(ctx)
}

func phaseAttr(phase string) attribute.KeyValue {
	return attribute.String("phase", phase)
}

func failReasonAttr(reason string) attribute.KeyValue {
	return attribute.String("fail_reason", reason)
}
