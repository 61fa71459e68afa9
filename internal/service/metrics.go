package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// orphanedCallbacks counts gateway callbacks that matched no order. A steady
// rate here means the gateway and the order store have diverged; the callback
// itself still redirects the customer as usual.
var orphanedCallbacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gizmobuy_orphaned_payment_callbacks_total",
		Help: "Payment gateway callbacks that did not match any stored order.",
	},
	[]string{"callback"},
)
