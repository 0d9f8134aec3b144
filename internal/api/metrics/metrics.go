// Package metrics defines and registers all custom Prometheus metrics for the
// friends API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register themselves with the default Prometheus registry at package
// init; the /metrics endpoint is exposed by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "friends"

// RequestsCreatedTotal counts friend requests that passed every invariant
// check and were recorded.
var RequestsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_created_total",
		Help:      "Total number of friend requests created.",
	},
)

// RequestsAcceptedTotal counts requests turned into friendships.
var RequestsAcceptedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_accepted_total",
		Help:      "Total number of friend requests accepted.",
	},
)

// RequestsDeniedTotal counts requests removed by their receiver.
var RequestsDeniedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_denied_total",
		Help:      "Total number of friend requests denied.",
	},
)

// RequestsRejectedTotal counts create attempts refused by an invariant check.
// Label:
//   - reason: "self_request", "receiver_not_found", "duplicate",
//     "reverse_exists" or "already_friends"
var RequestsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_rejected_total",
		Help:      "Total number of create attempts rejected by invariant checks.",
	},
	[]string{"reason"},
)

// ConsistencyFaultsTotal counts internal consistency faults: a rolled-back
// accept write set or a pending request referencing a missing sender. These
// indicate store corruption, not caller error.
var ConsistencyFaultsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consistency_faults_total",
		Help:      "Total number of internal consistency faults detected.",
	},
)
