// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wishbot"

var (
	// Updates counts inbound updates by kind: command, callback, input, ignored.
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Inbound Telegram updates by kind.",
	}, []string{"kind"})

	// HandlerErrors counts handler failures that reached the router.
	HandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_errors_total",
		Help:      "Handler failures by handler name.",
	}, []string{"handler"})

	// WizardTransitions counts draft stage changes by the stage entered;
	// "done" marks a consumed draft.
	WizardTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wizard_transitions_total",
		Help:      "Item wizard stage transitions by target stage.",
	}, []string{"stage"})

	// Notifications counts co-member notices by result: sent or failed.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Co-member notifications by delivery result.",
	}, []string{"result"})
)
