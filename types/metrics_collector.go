package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods are called from listener and broker goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces.
type MetricsCollector interface {
	ListenerMetrics
	ProvisioningMetrics
	EventMetrics
}

// ListenerMetrics defines metrics for the listen state machine.
type ListenerMetrics interface {
	// RecordStateTransition records a state transition of a Listen invocation.
	RecordStateTransition(from, to State)

	// RecordListenOutcome records how a Listen invocation settled.
	//
	// Parameters:
	//   - success: true if the connection was established
	//   - duration: Time from Listen to settlement in seconds
	RecordListenOutcome(success bool, duration float64)
}

// ProvisioningMetrics defines metrics for topic/channel creation.
type ProvisioningMetrics interface {
	// RecordProvisionRequest records one creation request.
	//
	// Parameters:
	//   - resource: "topic" or "channel"
	//   - success: true if the request succeeded
	//   - duration: Request latency in seconds
	RecordProvisionRequest(resource string, success bool, duration float64)

	// RecordProvisionSkipped records a creation skipped because the resource was already created
	// or auto-creation is enabled.
	RecordProvisionSkipped(resource string)
}

// EventMetrics defines metrics for the event bridge.
type EventMetrics interface {
	// RecordEventForwarded records one notification republished to observers.
	RecordEventForwarded(kind EventKind)
}
