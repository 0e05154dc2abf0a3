package probe

import (
	"strconv"

	"github.com/pingdeckhq/engine/pkg/types"
)

const (
	DefaultPingBinary  = "ping"
	DefaultPing6Binary = "ping6"
)

// Command builds the external invocation for one probe: a single echo
// request with the configured payload size. IPv4, domain and unknown
// targets get an explicit per-packet wait time; the IPv6 utility does
// not accept a wait-time flag, so for IPv6 targets the executor's
// software watchdog is the only timeout enforcement. That asymmetry is
// a platform constraint and is preserved here.
func Command(spec types.TargetSpec, cfg types.SessionConfig, pingBin, ping6Bin string) (string, []string) {
	if pingBin == "" {
		pingBin = DefaultPingBinary
	}
	if ping6Bin == "" {
		ping6Bin = DefaultPing6Binary
	}

	size := strconv.Itoa(cfg.PacketSize)

	if spec.Family == types.FamilyIPv6 {
		return ping6Bin, []string{"-c", "1", "-s", size, spec.Value}
	}

	timeoutMs := strconv.FormatInt(cfg.Timeout.Milliseconds(), 10)
	return pingBin, []string{"-c", "1", "-W", timeoutMs, "-s", size, spec.Value}
}
