package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedger(reg)

	m.DeltaApplied("purchase")
	m.DeltaApplied("purchase")
	m.DeltaRejected("sale-commit", "INSUFFICIENT_STOCK")
	m.Inventory(125.5, 3)
	m.ExternalReload("replaced")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.deltasApplied.WithLabelValues("purchase")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deltasRejected.WithLabelValues("sale-commit", "INSUFFICIENT_STOCK")))
	assert.Equal(t, 125.5, testutil.ToFloat64(m.valuation))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.lowStockItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalReloads.WithLabelValues("replaced")))
}

func TestNilLedgerIsSafe(t *testing.T) {
	var m *Ledger
	assert.NotPanics(t, func() {
		m.DeltaApplied("purchase")
		m.DeltaRejected("purchase", "X")
		m.Inventory(1, 1)
		m.ExternalReload("replaced")
	})
}
