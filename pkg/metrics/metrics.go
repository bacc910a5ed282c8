package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 注文ワークフローのカウンタ
type OrderMetrics struct {
	Placed          prometheus.Counter
	Cancelled       prometheus.Counter
	StockRejections prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_placed_total",
		Help:      "Total number of orders successfully placed.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "orders_cancelled_total",
		Help:      "Total number of orders cancelled by their owner.",
	})
	stockRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "storefront",
		Name:      "stock_rejections_total",
		Help:      "Total number of order attempts rejected for insufficient stock.",
	})

	reg.MustRegister(placed, cancelled, stockRejections)
	return &OrderMetrics{
		Placed:          placed,
		Cancelled:       cancelled,
		StockRejections: stockRejections,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
