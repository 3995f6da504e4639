package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is satisfied by *sql.DB and *sqlx.DB.
type StatsSource interface {
	Stats() sql.DBStats
}

// RegisterDBStats exposes database/sql connection pool statistics as Prometheus gauges.
func RegisterDBStats(reg prometheus.Registerer, db StatsSource) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_open_conns",
			Help: "Number of established connections, both in use and idle",
		}, func() float64 {
			return float64(db.Stats().OpenConnections)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_in_use_conns",
			Help: "Number of connections currently in use",
		}, func() float64 {
			return float64(db.Stats().InUse)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_idle_conns",
			Help: "Number of idle connections",
		}, func() float64 {
			return float64(db.Stats().Idle)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_max_open_conns",
			Help: "Maximum number of open connections to the database",
		}, func() float64 {
			return float64(db.Stats().MaxOpenConnections)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, func() float64 {
			return float64(db.Stats().WaitCount)
		}),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
