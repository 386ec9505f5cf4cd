package governance

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "governance"

// metrics counts engine operations for off-chain monitoring. All fields are
// non-nil; registration is optional.
type metrics struct {
	proposalsCreated  prometheus.Counter
	votesCast         prometheus.Counter
	proposalsExecuted prometheus.Counter
	proposalsCanceled prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		proposalsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_created_total",
			Help:      "Number of proposals accepted by the engine",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "votes_cast_total",
			Help:      "Number of ballots recorded, direct and by signature",
		}),
		proposalsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_executed_total",
			Help:      "Number of proposals whose strategy dispatch completed",
		}),
		proposalsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "proposals_canceled_total",
			Help:      "Number of proposals canceled by the owner",
		}),
	}
}

// RegisterMetrics registers the engine's operation counters with reg.
func (e *Engine) RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		e.metrics.proposalsCreated,
		e.metrics.votesCast,
		e.metrics.proposalsExecuted,
		e.metrics.proposalsCanceled,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
