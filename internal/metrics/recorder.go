package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dchandan/cmpnc/internal/compare"
	"github.com/dchandan/cmpnc/internal/orchestration"
	"github.com/dchandan/cmpnc/internal/sysmon"
)

const namespace = "cmpnc"

// Recorder implements orchestration.Recorder with Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	variables   *prometheus.CounterVec
	units       *prometheus.CounterVec
	unitSeconds *prometheus.HistogramVec
	mismatches  *prometheus.CounterVec
	verdict     prometheus.Gauge
	runSeconds  prometheus.Gauge
	heapBytes   prometheus.Gauge
	hostCPU     prometheus.Gauge
	hostMem     prometheus.Gauge
}

var _ orchestration.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder on a fresh registry that also carries the
// Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		variables: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variables_total",
			Help:      "Variables by comparison result.",
		}, []string{"result"}),
		units: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_units_total",
			Help:      "Work units executed, by group.",
		}, []string{"group"}),
		unitSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_duration_seconds",
			Help:      "Time spent executing one work unit.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"group"}),
		mismatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structural_mismatches_total",
			Help:      "Structural mismatches recorded, by kind.",
		}, []string{"kind"}),
		verdict: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_verdict",
			Help:      "1 when the datasets were found equivalent, 0 otherwise.",
		}),
		runSeconds: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the comparison run.",
		}),
		heapBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Heap in use when the run finished.",
		}),
		hostCPU: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_cpu_percent",
			Help:      "Host-wide CPU usage over the run.",
		}),
		hostMem: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_percent",
			Help:      "Host-wide memory usage when the run finished.",
		}),
	}
}

// Registry returns the registry holding every collector.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveUnit implements orchestration.Recorder.
func (r *Recorder) ObserveUnit(res compare.PartialResult) {
	group := res.Group.String()
	r.units.WithLabelValues(group).Inc()
	r.unitSeconds.WithLabelValues(group).Observe(res.Duration.Seconds())
}

// ObserveRun implements orchestration.Recorder.
func (r *Recorder) ObserveRun(rep *orchestration.Report) {
	c := rep.Verdict.Counts
	r.variables.WithLabelValues("passed").Add(float64(c.Passed))
	r.variables.WithLabelValues("failed").Add(float64(c.Failed))
	r.variables.WithLabelValues("skipped").Add(float64(c.Skipped))
	for _, m := range rep.Findings {
		r.mismatches.WithLabelValues(m.Kind).Inc()
	}
	if rep.Pass() {
		r.verdict.Set(1)
	} else {
		r.verdict.Set(0)
	}
	r.runSeconds.Set(rep.Duration.Seconds())
	r.heapBytes.Set(float64(ReadMemory().HeapAlloc))
	host := sysmon.Sample(context.Background())
	r.hostCPU.Set(host.CPUPercent)
	r.hostMem.Set(host.MemPercent)
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
