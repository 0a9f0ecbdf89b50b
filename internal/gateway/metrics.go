package gateway

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("gateway_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("gateway_sse_connections_active")
)
