package probe

import (
	"testing"

	"github.com/pingdeckhq/engine/pkg/types"
)

func TestClassifyExtractsLatency(t *testing.T) {
	out := []byte("64 bytes from 8.8.8.8: icmp_seq=0 ttl=57 time=12.3 ms")
	outcome := Classify(out, 0, "ping")

	if outcome.Kind != types.KindSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	if outcome.Latency != "12.3 ms" {
		t.Fatalf("unexpected latency text: %q", outcome.Latency)
	}
}

func TestClassifyPreservesSubMillisecondPrefix(t *testing.T) {
	out := []byte("64 bytes from 127.0.0.1: icmp_seq=0 ttl=64 time<1 ms")
	outcome := Classify(out, 0, "ping")

	if outcome.Kind != types.KindSuccess {
		t.Fatalf("expected success, got %s", outcome.Kind)
	}
	if outcome.Latency != "< 1 ms" {
		t.Fatalf("unexpected latency text: %q", outcome.Latency)
	}
}

func TestClassifyBytesFromWithoutTime(t *testing.T) {
	out := []byte("36 bytes from gateway (192.168.0.1): Destination unreachable\n64 bytes from 10.1.1.1: icmp_seq=0")
	outcome := Classify(out, 0, "ping")

	if outcome.Kind != types.KindSuccessNoTime {
		t.Fatalf("expected success without time, got %s", outcome.Kind)
	}
}

func TestClassifyFailureTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		output   string
		exitCode int
		want     types.OutcomeKind
	}{
		{"request timeout", "Request timeout for icmp_seq 0", 2, types.KindTimeout},
		{"timed out", "ping: sendto: operation timed out", 1, types.KindTimeout},
		{"cannot resolve", "ping: cannot resolve nosuch.invalid: Unknown host", 68, types.KindHostUnknown},
		{"name not known", "ping: nosuch.invalid: Name or service not known", 2, types.KindHostUnknown},
		{"network down", "connect: Network is unreachable", 2, types.KindNetworkDown},
		{"no route", "From 10.0.0.1 icmp_seq=1 Destination Net Unreachable\nping: sendto: No route to host", 2, types.KindNoRoute},
		{"host unreachable", "From 192.168.0.1 icmp_seq=1 Destination Host Unreachable", 1, types.KindHostUnreachable},
		{"invalid target", "ping: invalid argument: '256.1.1.1'", 64, types.KindInvalidTarget},
		{"permission denied", "ping: socket: Permission denied", 2, types.KindPermissionDenied},
		{"catch-all", "ping: something inexplicable happened", 1, types.KindFailed},
	}

	for _, tc := range cases {
		outcome := Classify([]byte(tc.output), tc.exitCode, "ping")
		if outcome.Kind != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, outcome.Kind, tc.want)
		}
	}
}

func TestClassifyTimeoutOutranksOtherMatches(t *testing.T) {
	out := []byte("Request timeout for icmp_seq 0\nping: sendto: Host unreachable")
	outcome := Classify(out, 2, "ping")
	if outcome.Kind != types.KindTimeout {
		t.Fatalf("timeout must win the priority order, got %s", outcome.Kind)
	}
}

func TestClassifyEmptyOutput(t *testing.T) {
	if got := Classify(nil, 0, "ping"); got.Kind != types.KindNoOutput {
		t.Fatalf("empty output with zero exit: got %s", got.Kind)
	}
	if got := Classify([]byte("  \n"), 0, "ping"); got.Kind != types.KindNoOutput {
		t.Fatalf("whitespace output with zero exit: got %s", got.Kind)
	}
	if got := Classify(nil, 1, "ping"); got.Kind != types.KindFailed {
		t.Fatalf("empty output with non-zero exit: got %s", got.Kind)
	}
}

func TestClassifyInvalidArgumentRequiresCommandName(t *testing.T) {
	out := []byte("connect: invalid argument")
	if got := Classify(out, 1, "ping"); got.Kind != types.KindFailed {
		t.Fatalf("invalid argument without the command name must stay Failed, got %s", got.Kind)
	}
}

func TestClassifyZeroExitUnrecognizedOutput(t *testing.T) {
	out := []byte("PING 8.8.8.8 (8.8.8.8): 56 data bytes")
	if got := Classify(out, 0, "ping"); got.Kind != types.KindFailed {
		t.Fatalf("unrecognized zero-exit output falls to the catch-all, got %s", got.Kind)
	}
}
