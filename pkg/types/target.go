package types

// Family identifies which address family a target belongs to, which in
// turn decides the reachability utility used to probe it.
type Family string

const (
	FamilyIPv4    Family = "ipv4"
	FamilyIPv6    Family = "ipv6"
	FamilyDomain  Family = "domain"
	FamilyUnknown Family = "unknown"
)

// TargetSpec is the immutable description of one probe target, supplied
// in bulk by the view layer when a session starts.
type TargetSpec struct {
	Value  string `json:"value" yaml:"value"`
	Family Family `json:"family" yaml:"family"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

// TargetSnapshot is a read-only copy of one target's live state.
type TargetSnapshot struct {
	ID           string  `json:"id" yaml:"id"`
	Value        string  `json:"value" yaml:"value"`
	Family       Family  `json:"family" yaml:"family"`
	Note         string  `json:"note,omitempty" yaml:"note,omitempty"`
	Outcome      Outcome `json:"outcome" yaml:"outcome"`
	SuccessCount uint64  `json:"success_count" yaml:"success_count"`
	FailureCount uint64  `json:"failure_count" yaml:"failure_count"`
	FailureRate  float64 `json:"failure_rate" yaml:"failure_rate"`
}
