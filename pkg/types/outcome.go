package types

// OutcomeKind is the closed classification of a probe result. String
// matching against utility output happens exactly once, at the probe
// executor boundary; everything downstream switches over the kind.
type OutcomeKind uint8

const (
	// KindPending marks a target that has never been probed.
	KindPending OutcomeKind = iota
	// KindProbing marks a target whose first result has not arrived yet.
	KindProbing
	// KindSuccess is a reply with a measured round-trip time.
	KindSuccess
	// KindSuccessNoTime is a reply whose output carried no time token.
	KindSuccessNoTime
	KindTimeout
	KindHostUnknown
	KindNetworkDown
	KindNoRoute
	KindHostUnreachable
	KindInvalidTarget
	KindPermissionDenied
	KindNoOutput
	// KindFailed is the catch-all for unrecognized error output.
	KindFailed
	// KindCancelled means the probe was torn down by pause/stop before
	// it produced a result. Never counted as a failure.
	KindCancelled
	KindPaused
	KindStopped
	KindCleared
	KindCompleted
)

var outcomeLabels = map[OutcomeKind]string{
	KindPending:          "Pending",
	KindProbing:          "Pinging",
	KindSuccess:          "Success",
	KindSuccessNoTime:    "Reply (no time)",
	KindTimeout:          "Timeout",
	KindHostUnknown:      "Unknown host",
	KindNetworkDown:      "Network down",
	KindNoRoute:          "No route",
	KindHostUnreachable:  "Host unreachable",
	KindInvalidTarget:    "Invalid target",
	KindPermissionDenied: "Permission denied",
	KindNoOutput:         "No output",
	KindFailed:           "Failed",
	KindCancelled:        "Cancelled",
	KindPaused:           "Paused",
	KindStopped:          "Stopped",
	KindCleared:          "Cleared",
	KindCompleted:        "Completed",
}

func (k OutcomeKind) String() string {
	if label, ok := outcomeLabels[k]; ok {
		return label
	}
	return "Unknown"
}

// Success reports whether the kind counts toward a target's success
// counter.
func (k OutcomeKind) Success() bool {
	return k == KindSuccess || k == KindSuccessNoTime
}

// Failure reports whether the kind counts toward a target's failure
// counter. Cancellation and transient stamps are excluded.
func (k OutcomeKind) Failure() bool {
	switch k {
	case KindTimeout, KindHostUnknown, KindNetworkDown, KindNoRoute,
		KindHostUnreachable, KindInvalidTarget, KindPermissionDenied,
		KindNoOutput, KindFailed:
		return true
	}
	return false
}

// Transient reports whether the kind is a placeholder status rather
// than a completed probe result. Transient targets are excluded from
// both aggregate counters.
func (k OutcomeKind) Transient() bool {
	switch k {
	case KindPending, KindProbing, KindPaused, KindStopped, KindCleared, KindCompleted:
		return true
	}
	return false
}

// Outcome is one classified probe result. Latency holds the display
// text for measured successes ("12.3 ms", "< 1 ms") and is empty for
// every other kind.
type Outcome struct {
	Kind    OutcomeKind `json:"kind" yaml:"kind"`
	Latency string      `json:"latency,omitempty" yaml:"latency,omitempty"`
}

// Label returns the user-visible text for the outcome.
func (o Outcome) Label() string {
	if o.Kind == KindSuccess && o.Latency != "" {
		return o.Latency
	}
	return o.Kind.String()
}
