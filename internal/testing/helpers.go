// Package testing splits the suite into unit and integration halves.
// Unit tests are the default and run anywhere; integration tests need
// a live NATS or Redis and are opted into through the environment.
package testing

import (
	"os"
	"testing"
)

// Mode is the resolved test mode for the current run.
type Mode int

const (
	// ModeUnit runs only self-contained tests.
	ModeUnit Mode = iota
	// ModeIntegration also runs tests that reach external services.
	ModeIntegration
)

// Current resolves the mode from the environment on every call, so
// per-test overrides through t.Setenv behave as expected.
// FLUME_UNIT_TESTS_ONLY=true forces unit mode no matter what else is
// set; otherwise FLUME_RUN_INTEGRATION_TESTS=true opts in to
// integration mode. Anything else, including an unset environment,
// means unit mode.
func Current() Mode {
	if os.Getenv("FLUME_UNIT_TESTS_ONLY") == "true" {
		return ModeUnit
	}
	if os.Getenv("FLUME_RUN_INTEGRATION_TESTS") == "true" {
		return ModeIntegration
	}
	return ModeUnit
}

// Unit reports whether the run is confined to unit tests.
func Unit() bool { return Current() == ModeUnit }

// Integration reports whether integration tests are enabled.
func Integration() bool { return Current() == ModeIntegration }

// SkipIfUnit skips a test that needs an external service when the
// run is unit-only.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	skipIn(t, ModeUnit, "skipping integration test in unit mode", message)
}

// SkipIfIntegration skips a unit-only test during an integration run.
func SkipIfIntegration(t *testing.T, message ...string) {
	t.Helper()
	skipIn(t, ModeIntegration, "skipping unit-only test in integration mode", message)
}

func skipIn(t *testing.T, mode Mode, fallback string, message []string) {
	t.Helper()
	if Current() != mode {
		return
	}
	if len(message) > 0 {
		fallback = message[0]
	}
	t.Skip(fallback)
}
