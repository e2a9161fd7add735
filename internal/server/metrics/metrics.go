// Package metrics exposes Prometheus counters for the document store.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	registry    *prometheus.Registry
	ReqCount    *prometheus.CounterVec
	ReqDuration *prometheus.HistogramVec
	Snapshots   *prometheus.CounterVec
}

// New registers the store metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReqCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmoclinic_grpc_requests_total",
				Help: "Total gRPC requests",
			},
			[]string{"method", "code"},
		),
		ReqDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dmoclinic_grpc_request_duration_seconds",
				Help:    "gRPC request duration seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		Snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dmoclinic_snapshots_total",
				Help: "Snapshot exports by result",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(m.ReqCount, m.ReqDuration, m.Snapshots)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// UnaryInterceptor counts and times every unary call.
func (m *Metrics) UnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	method := methodName(info.FullMethod)
	m.ReqDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	m.ReqCount.WithLabelValues(method, status.Code(err).String()).Inc()

	return resp, err
}

// SnapshotResult records the outcome of one snapshot export.
func (m *Metrics) SnapshotResult(err error) {
	if err != nil {
		m.Snapshots.WithLabelValues("error").Inc()
		return
	}
	m.Snapshots.WithLabelValues("ok").Inc()
}

func methodName(fullMethod string) string {
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[i+1:]
	}
	return fullMethod
}

// Serve runs the metrics HTTP endpoint on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
