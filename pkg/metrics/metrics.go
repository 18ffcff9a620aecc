package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farm_ledger"

// Ledger holds the instruments the ledger service reports to. A nil
// *Ledger is valid and records nothing.
type Ledger struct {
	deltasApplied   *prometheus.CounterVec
	deltasRejected  *prometheus.CounterVec
	valuation       prometheus.Gauge
	lowStockItems   prometheus.Gauge
	externalReloads *prometheus.CounterVec
}

// NewLedger creates the ledger instruments and registers them on reg.
func NewLedger(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		deltasApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_applied_total",
			Help:      "Stock deltas applied to the ledger.",
		}, []string{"source"}),
		deltasRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_rejected_total",
			Help:      "Stock deltas rejected by the ledger.",
		}, []string{"source", "code"}),
		valuation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_valuation",
			Help:      "Sum of quantity times unit price over all items.",
		}),
		lowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_items",
			Help:      "Items at or below their reorder level.",
		}),
		externalReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_reloads_total",
			Help:      "Snapshot reloads triggered by changes from another process.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.deltasApplied, m.deltasRejected, m.valuation, m.lowStockItems, m.externalReloads)
	return m
}

func (m *Ledger) DeltaApplied(source string) {
	if m == nil {
		return
	}
	m.deltasApplied.WithLabelValues(source).Inc()
}

func (m *Ledger) DeltaRejected(source, code string) {
	if m == nil {
		return
	}
	m.deltasRejected.WithLabelValues(source, code).Inc()
}

// Inventory records the current valuation and low stock count.
func (m *Ledger) Inventory(valuation float64, lowStock int) {
	if m == nil {
		return
	}
	m.valuation.Set(valuation)
	m.lowStockItems.Set(float64(lowStock))
}

func (m *Ledger) ExternalReload(outcome string) {
	if m == nil {
		return
	}
	m.externalReloads.WithLabelValues(outcome).Inc()
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
