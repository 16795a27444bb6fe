package metrics

import "github.com/prometheus/client_golang/prometheus"

// CatalogMetrics tracks the denormalized-catalog maintenance paths.
type CatalogMetrics struct {
	cascadeRows  *prometheus.CounterVec
	counterNoops prometheus.Counter
	counterMoves prometheus.Counter
}

// NewCatalogMetrics registers the catalog maintenance metrics.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	cascadeRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cascade_rows_total",
		Help: "Product rows rewritten by category rename cascades.",
	}, []string{"category"})
	counterNoops := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_counter_noops_total",
		Help: "Product-count adjustments skipped because the guard matched no row.",
	})
	counterMoves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_counter_adjustments_total",
		Help: "Product-count adjustments applied.",
	})
	reg.MustRegister(cascadeRows, counterNoops, counterMoves)
	return &CatalogMetrics{
		cascadeRows:  cascadeRows,
		counterNoops: counterNoops,
		counterMoves: counterMoves,
	}
}

// AddCascadeRows records how many product rows a rename touched.
func (c *CatalogMetrics) AddCascadeRows(categoryID string, rows int64) {
	if c == nil || c.cascadeRows == nil || rows <= 0 {
		return
	}
	c.cascadeRows.WithLabelValues(normalizeLabel(categoryID)).Add(float64(rows))
}

// IncCounterNoop records a guarded counter update that matched no row.
func (c *CatalogMetrics) IncCounterNoop() {
	if c == nil || c.counterNoops == nil {
		return
	}
	c.counterNoops.Inc()
}

// IncCounterAdjustment records an applied counter update.
func (c *CatalogMetrics) IncCounterAdjustment() {
	if c == nil || c.counterMoves == nil {
		return
	}
	c.counterMoves.Inc()
}
