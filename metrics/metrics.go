package metrics

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/reusee/aggr/aggregates"
)

const namespace = "aggr"

// Metrics collects the rounds of one device.
type Metrics struct {
	Registry      *prometheus.Registry
	Rounds        prometheus.Counter
	RoundErrors   prometheus.Counter
	RoundDuration prometheus.Histogram
	Neighbors     prometheus.Gauge
	Paths         prometheus.Gauge
	Value         prometheus.Gauge
}

func New[ID cmp.Ordered](device ID) *Metrics {
	labels := prometheus.Labels{
		"device": fmt.Sprint(device),
	}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rounds_total",
			Help:        "rounds completed",
			ConstLabels: labels,
		}),
		RoundErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "round_errors_total",
			Help:        "rounds failed",
			ConstLabels: labels,
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "round_duration_seconds",
			Help:        "time spent in the program of a round",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		Neighbors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "neighbors",
			Help:        "neighbors aligned in the last round",
			ConstLabels: labels,
		}),
		Paths: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "outbound_paths",
			Help:        "paths in the last outbound envelope",
			ConstLabels: labels,
		}),
		Value: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "value",
			Help:        "numeric result of the last round",
			ConstLabels: labels,
		}),
	}
	m.Registry.MustRegister(
		m.Rounds,
		m.RoundErrors,
		m.RoundDuration,
		m.Neighbors,
		m.Paths,
		m.Value,
	)
	return m
}

// Instrument wraps program to time it and count its failures, panics included.
func Instrument[ID cmp.Ordered, R any](m *Metrics, program aggregates.Program[ID, R]) aggregates.Program[ID, R] {
	return func(c *aggregates.Context[ID]) (R, error) {
		t0 := time.Now()
		defer func() {
			m.RoundDuration.Observe(time.Since(t0).Seconds())
			if p := recover(); p != nil {
				m.RoundErrors.Inc()
				panic(p)
			}
		}()
		m.Neighbors.Set(float64(len(c.Neighbors())))
		ret, err := program(c)
		if err != nil {
			m.RoundErrors.Inc()
		}
		return ret, err
	}
}

// Observe records a completed round. Non-numeric values leave the value gauge unchanged.
func Observe[ID cmp.Ordered, R any](m *Metrics, result aggregates.Result[ID, R]) {
	m.Rounds.Inc()
	m.Paths.Set(float64(result.Outbound.Len()))
	if v, ok := toFloat(any(result.Value)); ok {
		m.Value.Set(v)
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on listener until ctx is done.
func (m *Metrics) Serve(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			server.Close()
		case <-done:
		}
	}()
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
