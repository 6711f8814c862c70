// Package probe answers hardware queries, one implementation per
// resource kind. Probes are the only code that talks to the OS or the
// GPU driver; everything above them sees uniform sections and uniform
// failure (domain.ErrUnavailable for sources that do not exist on this
// machine, any other error for transient trouble).
package probe

import (
	"context"

	"github.com/mlrig/hwmon/internal/domain"
)

// Probe fills its section of a snapshot. A probe that fails leaves its
// section untouched; the sampler records the error and publishes the
// snapshot with that section absent.
//
// Probes are invoked only from the sampler goroutine, so a probe may
// keep unguarded prev-counter state between calls.
type Probe interface {
	Name() string
	Collect(ctx context.Context, snap *domain.Snapshot) error
}

// Resettable is implemented by probes that carry running totals
// (cumulative byte or jiffy counters used for per-interval rates).
type Resettable interface {
	ResetTotals()
}
