package session

import "expvar"

var (
	metricDevicesConnectedTotal = expvar.NewInt("session_devices_connected_total")
	metricDevicesActive         = expvar.NewInt("session_devices_active")
	metricClaimsTotal           = expvar.NewInt("session_claims_total")
	metricClaimsRejectedTotal   = expvar.NewInt("session_claims_rejected_total")
	metricReconnectsTotal       = expvar.NewInt("session_reconnects_total")
	metricPublishesTotal        = expvar.NewInt("session_publishes_total")
	metricPublishesDeferred     = expvar.NewInt("session_publishes_deferred_total")
	metricMalformedInputTotal   = expvar.NewInt("session_malformed_input_total")
)
