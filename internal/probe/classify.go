package probe

import (
	"regexp"
	"strings"

	"github.com/pingdeckhq/engine/pkg/types"
)

var latencyPattern = regexp.MustCompile(`time([=<])\s*([0-9]+(?:\.[0-9]+)?)`)

// failureRule maps an output substring to its canonical kind. Order
// matters: the first match wins.
type failureRule struct {
	needle string
	kind   types.OutcomeKind
}

var (
	earlyFailureRules = []failureRule{
		{"timeout", types.KindTimeout},
		{"timed out", types.KindTimeout},
		{"cannot resolve", types.KindHostUnknown},
		{"unknown host", types.KindHostUnknown},
		{"not known", types.KindHostUnknown},
		{"network is unreachable", types.KindNetworkDown},
		{"network unreachable", types.KindNetworkDown},
		{"no route to host", types.KindNoRoute},
		{"host unreachable", types.KindHostUnreachable},
	}
	lateFailureRules = []failureRule{
		{"permission denied", types.KindPermissionDenied},
		{"operation not permitted", types.KindPermissionDenied},
	}
)

// Classify converts captured combined output plus the exit status into
// a canonical outcome. Matching is case-insensitive and happens only
// here; downstream logic switches over the resulting kind.
func Classify(output []byte, exitCode int, command string) types.Outcome {
	text := strings.ToLower(strings.TrimSpace(string(output)))

	if text == "" {
		if exitCode == 0 {
			return types.Outcome{Kind: types.KindNoOutput}
		}
		return types.Outcome{Kind: types.KindFailed}
	}

	if m := latencyPattern.FindStringSubmatch(text); m != nil {
		latency := m[2] + " ms"
		if m[1] == "<" {
			latency = "< " + latency
		}
		return types.Outcome{Kind: types.KindSuccess, Latency: latency}
	}

	if strings.Contains(text, "bytes from") {
		return types.Outcome{Kind: types.KindSuccessNoTime}
	}

	if exitCode != 0 {
		for _, rule := range earlyFailureRules {
			if strings.Contains(text, rule.needle) {
				return types.Outcome{Kind: rule.kind}
			}
		}
		if strings.Contains(text, "invalid argument") && strings.Contains(text, strings.ToLower(command)) {
			return types.Outcome{Kind: types.KindInvalidTarget}
		}
		for _, rule := range lateFailureRules {
			if strings.Contains(text, rule.needle) {
				return types.Outcome{Kind: rule.kind}
			}
		}
	}

	return types.Outcome{Kind: types.KindFailed}
}
