package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingdeckhq/engine/pkg/types"
)

const lastInputFileName = "targets.txt"

// ParseTargets turns free-text user input into structured target
// specs: one target per line, anything after '#' is a free-text note.
func ParseTargets(text string) []types.TargetSpec {
	var specs []types.TargetSpec
	for _, line := range strings.Split(text, "\n") {
		value := strings.TrimSpace(line)
		note := ""
		if i := strings.Index(value, "#"); i >= 0 {
			note = strings.TrimSpace(value[i+1:])
			value = strings.TrimSpace(value[:i])
		}
		if value == "" {
			continue
		}
		specs = append(specs, types.TargetSpec{
			Value:  value,
			Family: DetectFamily(value),
			Note:   note,
		})
	}
	return specs
}

// DetectFamily classifies a target value. Literal addresses are
// recognized by the parser; everything else that looks like a hostname
// is a domain, and the rest is unknown (still probed, with the IPv4
// utility).
func DetectFamily(value string) types.Family {
	if ip := net.ParseIP(value); ip != nil {
		if ip.To4() != nil {
			return types.FamilyIPv4
		}
		return types.FamilyIPv6
	}
	if isHostname(value) {
		return types.FamilyDomain
	}
	return types.FamilyUnknown
}

func isHostname(value string) bool {
	if len(value) == 0 || len(value) > 253 {
		return false
	}
	for _, label := range strings.Split(value, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '-':
			default:
				return false
			}
		}
	}
	return true
}

// lastInputPath returns the location where the last-used target list
// is persisted between invocations.
func lastInputPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "pingdeck", lastInputFileName), nil
}

// SaveLastInput persists the raw input text so the next invocation can
// start without arguments.
func SaveLastInput(text string) error {
	path, err := lastInputPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("ensure state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write last input: %w", err)
	}
	return nil
}

// LoadLastInput restores the previously saved input text. A missing
// file yields an empty string, not an error.
func LoadLastInput() (string, error) {
	path, err := lastInputPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read last input: %w", err)
	}
	return string(data), nil
}
