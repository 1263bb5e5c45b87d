package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"scheddemo/config"
	"scheddemo/constants"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Options controls collector configuration.
type Options struct {
	Namespace       string
	DurationBuckets []float64
}

// Exporter turns iteration events into Prometheus series. It implements the
// harness iteration observer.
type Exporter struct {
	iterationsTotal  *prom.CounterVec
	iterationSeconds *prom.HistogramVec
	spinPollsTotal   *prom.CounterVec
	runInfo          *prom.GaugeVec

	// Per-worker label values and start stamps, fixed before release.
	workers []workerLabels
	starts  []time.Time
}

type workerLabels struct {
	id     string
	policy string
}

// NewExporter creates and registers collectors for the workers in cfg.
func NewExporter(cfg config.RunConfig, reg prom.Registerer, opts Options) (*Exporter, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = constants.MetricsNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.ExponentialBuckets(0.001, 4, 10)
	}

	iterationsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "iterations_total",
		Help:      "Completed busy-wait iterations.",
	}, []string{"worker", "policy"})
	secondsVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "iteration_seconds",
		Help:      "Wall time of one busy-wait iteration in seconds.",
		Buckets:   buckets,
	}, []string{"policy"})
	pollsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "spin_polls_total",
		Help:      "Clock polls performed while spinning.",
	}, []string{"worker"})
	infoVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "run_info",
		Help:      "Constant 1, labelled with the configuration fingerprint.",
	}, []string{"fingerprint"})

	var err error
	if iterationsVec, err = registerCollector(reg, prom.BuildFQName(namespace, "", "iterations_total"), iterationsVec); err != nil {
		return nil, err
	}
	if secondsVec, err = registerCollector(reg, prom.BuildFQName(namespace, "", "iteration_seconds"), secondsVec); err != nil {
		return nil, err
	}
	if pollsVec, err = registerCollector(reg, prom.BuildFQName(namespace, "", "spin_polls_total"), pollsVec); err != nil {
		return nil, err
	}
	if infoVec, err = registerCollector(reg, prom.BuildFQName(namespace, "", "run_info"), infoVec); err != nil {
		return nil, err
	}

	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}
	infoVec.WithLabelValues(fp).Set(1)

	descs := cfg.Descriptors()
	e := &Exporter{
		iterationsTotal:  iterationsVec,
		iterationSeconds: secondsVec,
		spinPollsTotal:   pollsVec,
		runInfo:          infoVec,
		workers:          make([]workerLabels, len(descs)),
		starts:           make([]time.Time, len(descs)),
	}
	for i, d := range descs {
		e.workers[i] = workerLabels{id: strconv.Itoa(d.ID), policy: d.Policy.String()}
	}
	return e, nil
}

// IterationStart stamps the start of an iteration.
func (e *Exporter) IterationStart(worker, iter int) {
	if e == nil || uint(worker) >= uint(len(e.starts)) {
		return
	}
	e.starts[worker] = time.Now()
}

// IterationEnd records the finished iteration.
func (e *Exporter) IterationEnd(worker, iter int, polls uint64) {
	if e == nil || uint(worker) >= uint(len(e.workers)) {
		return
	}
	l := e.workers[worker]
	e.iterationsTotal.WithLabelValues(l.id, l.policy).Inc()
	e.spinPollsTotal.WithLabelValues(l.id).Add(float64(polls))
	if start := e.starts[worker]; !start.IsZero() {
		e.iterationSeconds.WithLabelValues(l.policy).Observe(time.Since(start).Seconds())
	}
}

// WriteTextfile dumps every series in g to path in the text exposition
// format read by node_exporter's textfile collector.
func WriteTextfile(path string, g prom.Gatherer) error {
	if err := prom.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// registerCollector registers collector under name, or hands back the
// collector a previous exporter already registered for it.
func registerCollector[T prom.Collector](reg prom.Registerer, name string, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var are prom.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return collector, fmt.Errorf("register metric %s: %w", name, err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return collector, fmt.Errorf("metric %s already registered as %T, want %T", name, are.ExistingCollector, collector)
	}
	return existing, nil
}
