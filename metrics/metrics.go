// Package metrics exposes the prometheus collectors of the service.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const subsystem = "demoapp"

// Metrics holds the collectors. The zero value is not usable, use New.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal         *prometheus.CounterVec
	operationsErrorsTotal   *prometheus.CounterVec
	operationsLatencySecond *prometheus.SummaryVec
	trainLoss               prometheus.Gauge
	trainEpochsTotal        prometheus.Counter
	trainRunning            prometheus.Gauge
	trainRunsTotal          *prometheus.CounterVec
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Cumulative number of API operations by operation type.",
			},
			[]string{"operation"},
		),
		operationsErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "operations_errors_total",
				Help:      "Cumulative number of API operation errors by operation type.",
			},
			[]string{"operation"},
		),
		operationsLatencySecond: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem:  subsystem,
				Name:       "operations_latency_seconds",
				Help:       "Latency in seconds of API operations. Broken down by operation type.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"operation"},
		),
		trainLoss: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      "train_loss",
				Help:      "Loss reported by the last finished training epoch.",
			},
		),
		trainEpochsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "train_epochs_total",
				Help:      "Cumulative number of finished training epochs.",
			},
		),
		trainRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      "train_running",
				Help:      "Number of training runs currently executing.",
			},
		),
		trainRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      "train_runs_total",
				Help:      "Cumulative number of training runs by final status.",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.operationsTotal,
		m.operationsErrorsTotal,
		m.operationsLatencySecond,
		m.trainLoss,
		m.trainEpochsTotal,
		m.trainRunning,
		m.trainRunsTotal,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) OperationsInc(operation string) {
	c, err := m.operationsTotal.GetMetricWithLabelValues(operation)
	if err != nil {
		logrus.Warnf("Unable to write operations metric: %v", err)
		return
	}
	c.Inc()
}

func (m *Metrics) OperationsErrorsInc(operation string) {
	c, err := m.operationsErrorsTotal.GetMetricWithLabelValues(operation)
	if err != nil {
		logrus.Warnf("Unable to write operation errors metric: %v", err)
		return
	}
	c.Inc()
}

func (m *Metrics) OperationsLatencyObserve(operation string, start time.Time) {
	o, err := m.operationsLatencySecond.GetMetricWithLabelValues(operation)
	if err != nil {
		logrus.Warnf("Unable to write operation latency metric: %v", err)
		return
	}
	o.Observe(time.Since(start).Seconds())
}

func (m *Metrics) TrainEpoch(loss float64) {
	m.trainLoss.Set(loss)
	m.trainEpochsTotal.Inc()
}

func (m *Metrics) TrainStarted() {
	m.trainRunning.Inc()
}

func (m *Metrics) TrainFinished(status string) {
	m.trainRunning.Dec()
	c, err := m.trainRunsTotal.GetMetricWithLabelValues(status)
	if err != nil {
		logrus.Warnf("Unable to write training runs metric: %v", err)
		return
	}
	c.Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	mux := &http.ServeMux{}
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}

// Serve serves Handler on address until ctx is done.
func (m *Metrics) Serve(ctx context.Context, address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logrus.Infof("Serving metrics on %s", l.Addr())
	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
