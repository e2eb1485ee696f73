package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authStoreOpsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "auth_store_operations_total",
		Help:      "Total auth-state store operations.",
	},
	[]string{"operation"}, // init_creds, save_creds, get_keys, set_keys, teardown
)
