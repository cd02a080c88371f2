// Package metrics collects per-run counters and writes them in the Prometheus
// textfile format, for pickup by node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/reconcile"
)

// Recorder holds the gauges of one ceclust invocation.
type Recorder struct {
	reg                *prometheus.Registry
	structuredProteins prometheus.Gauge
	clusters           *prometheus.GaugeVec
	resolvedClusters   *prometheus.GaugeVec
	proteins           *prometheus.GaugeVec
	liveLookups        *prometheus.GaugeVec
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		structuredProteins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ceclust",
			Name:      "structured_proteins",
			Help:      "Proteins with a resolved structure in the annotation index.",
		}),
		clusters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ceclust",
			Name:      "clusters",
			Help:      "Clusters reconciled, by target family.",
		}, []string{"family"}),
		resolvedClusters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ceclust",
			Name:      "clusters_resolved",
			Help:      "Clusters containing at least one resolved protein, by target family.",
		}, []string{"family"}),
		proteins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ceclust",
			Name:      "proteins",
			Help:      "Protein rows emitted, by target family.",
		}, []string{"family"}),
		liveLookups: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ceclust",
			Name:      "live_lookups",
			Help:      "Annotation store lookups for unresolved proteins, by target family.",
		}, []string{"family"}),
	}
	r.reg.MustRegister(r.structuredProteins, r.clusters, r.resolvedClusters, r.proteins, r.liveLookups)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveIndex records the size of the structured index.
func (r *Recorder) ObserveIndex(n int) {
	r.structuredProteins.Set(float64(n))
}

// ObserveRun records the outcome of reconciling one target family.
func (r *Recorder) ObserveRun(family string, res *reconcile.Result) {
	r.clusters.WithLabelValues(family).Set(float64(len(res.Clusters)))
	r.resolvedClusters.WithLabelValues(family).Set(float64(res.ResolvedClusters()))
	r.proteins.WithLabelValues(family).Set(float64(len(res.Members)))
	r.liveLookups.WithLabelValues(family).Set(float64(res.LiveLookups))
}

// WriteFile writes all metrics to path, replacing it atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrapf(err, "cannot write metrics to %s", path)
	}
	return nil
}
