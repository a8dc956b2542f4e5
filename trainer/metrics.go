package trainer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors updated by Fit. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Steps    prometheus.Counter
	Epochs   prometheus.Counter
	Loss     prometheus.Gauge
	StepTime prometheus.Histogram
	Replicas prometheus.Gauge
}

// NewMetrics creates the training collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msa_train_steps_total",
			Help: "Optimizer steps applied",
		}),
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "msa_train_epochs_total",
			Help: "Training epochs completed",
		}),
		Loss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "msa_train_loss",
			Help: "Loss of the last optimizer step",
		}),
		StepTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "msa_train_step_seconds",
			Help:    "Duration of one optimizer step",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Replicas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "msa_train_replicas",
			Help: "Model replicas of the running execution strategy",
		}),
	}
	for _, c := range []prometheus.Collector{m.Steps, m.Epochs, m.Loss, m.StepTime, m.Replicas} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNewMetrics is NewMetrics that panics on registration failure
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err.Error())
	}
	return m
}

func (m *Metrics) observeStrategy(replicas int) {
	if m == nil {
		return
	}
	m.Replicas.Set(float64(replicas))
}

func (m *Metrics) observeStep(loss float32, d time.Duration) {
	if m == nil {
		return
	}
	m.Steps.Inc()
	m.Loss.Set(float64(loss))
	m.StepTime.Observe(d.Seconds())
}

func (m *Metrics) observeEpoch() {
	if m == nil {
		return
	}
	m.Epochs.Inc()
}
