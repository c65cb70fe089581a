// Package instrument implements the debug-mode allocation tracker
// that arms at the start of Execute and asserts a zero heap-allocation
// count at its end.
//
// The tracker samples runtime.MemStats.Mallocs before and after a
// region — the same counter testing.AllocsPerRun reads internally.
// Release-mode omission is expressed as an Enabled flag checked once
// per Arm/Check pair rather than a build tag, since gating the package
// behind a build tag would make every call site conditionally
// compiled.
package instrument

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/Lint111/VBVS--VIXEN-sub013/corerr"
)

const component = "instrument"

// Violation describes one non-zero allocation count observed between
// Arm and Check, classified by component, allocation count, and the
// call site that disarmed the tracker.
type Violation struct {
	Component string
	Count     uint64
	Site      string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %d allocation(s) at %s", v.Component, v.Count, v.Site)
}

// Tracker observes heap allocations across a single Execute pass. The
// zero value has tracking disabled; call New(true) to enable it, which
// is how the graph orchestrator reads ENABLE_ALLOCATION_TRACKING.
type Tracker struct {
	enabled bool
	armed   atomic.Bool
	start   uint64
}

// New creates a Tracker. enabled should be the resolved value of
// ENABLE_ALLOCATION_TRACKING (or a debug-build default); when false,
// Arm and Check are no-ops.
func New(enabled bool) *Tracker {
	return &Tracker{enabled: enabled}
}

// Enabled reports whether the tracker is actively sampling.
func (t *Tracker) Enabled() bool { return t.enabled }

// Arm samples the current heap-allocation counter and marks the tracker
// armed. It must be called exactly once at the start of Execute.
func (t *Tracker) Arm() {
	if !t.enabled {
		return
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	t.start = stats.Mallocs
	t.armed.Store(true)
}

// Check samples the heap-allocation counter again and reports the
// delta since Arm. component identifies the caller for the Violation's
// classification; site is typically the caller's own file:line (via
// runtime.Caller at the Check call site, left to the caller to supply
// so this package stays free of any assumption about call depth).
// Check disarms the tracker whether or not tracking is enabled.
func (t *Tracker) Check(component_, site string) (*Violation, error) {
	defer t.armed.Store(false)
	if !t.enabled {
		return nil, nil
	}
	if !t.armed.Load() {
		return nil, corerr.New(component, corerr.InvalidTransition, "Check called without a matching Arm")
	}
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	delta := stats.Mallocs - t.start
	if delta == 0 {
		return nil, nil
	}
	v := &Violation{Component: component_, Count: delta, Site: site}
	return v, corerr.New(component, corerr.AllocationViolated, v.String())
}
