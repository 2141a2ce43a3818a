// Package kernel defines the simulation-kernel collaborator the
// exploration driver tears down and recreates once per run (§4.7): the
// discrete-event core that actually executes guest instructions against a
// memif.Interface and reports how the run ended. It is explicitly a
// collaborator interface, not a concrete simulator — §1 scopes the guest
// ISA/core itself out, leaving this package as the seam a real simulator
// plugs into. package kernel/akitakernel supplies a reference
// implementation riding github.com/sarchlab/akita/v4/sim's discrete-event
// engine, the same scheduling primitive sarchlab/zeonica uses for its
// CGRA core.
package kernel

import "context"

// Outcome reports how one simulation run ended.
type Outcome struct {
	// ExitCode is the guest program's reported exit status.
	ExitCode int
	// Stopped is true when the run was cut short by an assume notification
	// (trace.ErrAssumeNotification) instead of running to completion.
	// explore.Driver counts such a run as a path and does not treat it as
	// an error.
	Stopped bool
	// HostError, if non-nil, is an error the host detected during
	// execution (e.g. a trap on an unmapped instruction) — reported
	// through explore.GuestError rather than a plain error return so the
	// driver can apply SYMEX_ERREXIT policy to it specifically.
	HostError error
}

// Kernel is one simulation session: Reset tears down and recreates the
// simulated machine state for a fresh run, Simulate executes it to
// completion (or to ctx cancellation, e.g. a time budget expiring).
type Kernel interface {
	Reset(ctx context.Context) error
	Simulate(ctx context.Context) (Outcome, error)
}
