package domain

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a metric source that cannot be read at all on
// this machine (missing driver, unsupported platform). Probes return it
// wrapped so callers can distinguish "absent" from a transient failure.
var ErrUnavailable = errors.New("metric source unavailable")

// ErrProbe wraps a failure from a named probe.
type ErrProbe struct {
	Probe string
	Err   error
}

func (e ErrProbe) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Probe, e.Err)
}

func (e ErrProbe) Unwrap() error {
	return e.Err
}
