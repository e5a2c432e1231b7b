// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/modbus-workbench/internal/rawlog"
)

// Collector turns raw traffic entries into Prometheus counters. Subscribe
// its Handle method to the traffic broadcaster.
type Collector struct {
	transactions *prometheus.CounterVec
	txBytes      prometheus.Counter
	rxBytes      prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "modbus_transactions_total",
			Help: "Transactions observed on the wire, by result.",
		}, []string{"result"}),
		txBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modbus_tx_bytes_total",
			Help: "Bytes transmitted to the slave.",
		}),
		rxBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "modbus_rx_bytes_total",
			Help: "Bytes received from the slave.",
		}),
	}
	reg.MustRegister(c.transactions, c.txBytes, c.rxBytes)
	return c
}

// Handle consumes one traffic entry. An entry with response bytes counts
// as ok, one without as no_response.
func (c *Collector) Handle(e rawlog.Entry) {
	if len(e.Tx) > 0 {
		c.txBytes.Add(float64(len(e.Tx)))
	}
	if len(e.Rx) > 0 {
		c.rxBytes.Add(float64(len(e.Rx)))
		c.transactions.WithLabelValues("ok").Inc()
		return
	}
	c.transactions.WithLabelValues("no_response").Inc()
}
