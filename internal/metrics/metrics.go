package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Payment counts the settlement flow's externally visible outcomes.
type Payment struct {
	RemoteOrdersCreated prometheus.Counter
	Captures            *prometheus.CounterVec
	EnrollmentsGranted  prometheus.Counter
}

// NewPayment registers payment metrics on the given registerer. Pass
// prometheus.DefaultRegisterer in main; tests use a private registry.
func NewPayment(reg prometheus.Registerer) *Payment {
	m := &Payment{
		RemoteOrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lms",
			Subsystem: "payments",
			Name:      "remote_orders_created_total",
			Help:      "Gateway orders successfully created.",
		}),
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Subsystem: "payments",
			Name:      "captures_total",
			Help:      "Capture attempts by result.",
		}, []string{"result"}),
		EnrollmentsGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lms",
			Subsystem: "payments",
			Name:      "enrollments_granted_total",
			Help:      "Enrollments created by settlements.",
		}),
	}
	reg.MustRegister(m.RemoteOrdersCreated, m.Captures, m.EnrollmentsGranted)
	return m
}

// Capture result labels.
const (
	ResultSettled    = "settled"
	ResultDuplicate  = "duplicate"
	ResultGatewayErr = "gateway_error"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
