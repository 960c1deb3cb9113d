package testing

import (
	"os"
	"testing"
)

// Unit returns true if running in unit test mode.
// Unit tests should be fast and not touch the host beyond a temp dir.
// This is determined by the SCRIPTLOG_UNIT_TESTS_ONLY and
// SCRIPTLOG_RUN_INTEGRATION_TESTS environment variables.
func Unit() bool {
	if os.Getenv("SCRIPTLOG_UNIT_TESTS_ONLY") == "true" {
		return true
	}

	switch os.Getenv("SCRIPTLOG_RUN_INTEGRATION_TESTS") {
	case "true":
		return false
	case "false":
		return true
	}

	// Default to unit mode if not explicitly running integration tests
	return true
}

// Integration returns true if running in integration test mode.
// Integration tests may need host services such as the local syslog socket.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test if running in unit test mode.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// SkipIfIntegration skips the test if running in integration test mode.
func SkipIfIntegration(t *testing.T, message ...string) {
	t.Helper()
	if Integration() {
		msg := "Skipping unit-only test in integration mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}
