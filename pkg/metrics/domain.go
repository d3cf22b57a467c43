package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultApplied  = "applied"
	ResultRejected = "rejected"
)

// DomainMetrics tracks checkout outcomes.
type DomainMetrics struct {
	ordersCreated *prometheus.CounterVec
	voucherApply  *prometheus.CounterVec
}

func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders placed, by payment method.",
	}, []string{"payment_method"})
	voucherApply := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voucher_apply_total",
		Help: "Voucher applications, by scope and result.",
	}, []string{"scope", "result"})
	reg.MustRegister(ordersCreated, voucherApply)
	return &DomainMetrics{ordersCreated: ordersCreated, voucherApply: voucherApply}
}

func (m *DomainMetrics) IncOrderCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncVoucherApply records an apply attempt; applied selects the result label.
func (m *DomainMetrics) IncVoucherApply(scope string, applied bool) {
	if m == nil || m.voucherApply == nil {
		return
	}
	result := ResultRejected
	if applied {
		result = ResultApplied
	}
	m.voucherApply.WithLabelValues(normalizeLabel(scope), result).Inc()
}
