// Package explore implements the exploration driver of §4.7: the main loop
// that resets the trace, tears down and recreates the simulation kernel,
// runs one simulation, observes its outcome, and calls Advance to pick the
// next store to install — directly grounded on
// original_source/vp/src/symex/symbolic_explore.cpp's explore_paths()/
// run_test()/report_handler(), translated from that file's SystemC
// elaborate-and-simulate cycle plus atexit-registered temp-directory
// cleanup into a Go loop around kernel.Kernel.
package explore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tebeka/atexit"

	"symex/pkg/config"
	"symex/pkg/execctx"
	"symex/pkg/kernel"
	"symex/pkg/store"
	"symex/pkg/testcase"
)

// GuestError wraps a host-detected error from one simulation run together
// with the store that produced it, the way dump_input() in
// symbolic_explore.cpp pairs an error report with the triggering test
// case.
type GuestError struct {
	Err   error
	Store store.Store
}

func (e *GuestError) Error() string { return fmt.Sprintf("guest error: %v", e.Err) }
func (e *GuestError) Unwrap() error { return e.Err }

// Report is the final summary printed at the end of exploration, matching
// symbolic_explore.cpp's closing "Unique paths found"/"Solver Time"/
// "Errors found"/"Testcase directory" lines.
type Report struct {
	UniquePaths int
	SolverTime  time.Duration
	Errors      int
	TestcaseDir string
}

// Driver runs repeated simulation rounds against a kernel.Kernel, using an
// execctx.Context to pick the next input assignment after each round.
//
// The Context must be the same one the Kernel's guest program was
// constructed against — Advance() and the program's BVC/trace calls need
// to observe the same shared path tree and installed store. This mirrors
// symbolic_explore.cpp, where the global Trace/ConcreteStore state the
// SystemC core reads is the same state explore_paths() mutates between
// runs, just without a process-global to make that implicit.
type Driver struct {
	cfg  config.Config
	ctx  *execctx.Context
	kern kernel.Kernel

	testDir     string
	pathCount   int
	errCount    int
	guestErrors []*GuestError
}

// New creates a Driver around execCtx and kern. cfg should already have
// env-var overrides applied (config.Config.LoadFromEnv).
func New(cfg config.Config, execCtx *execctx.Context, kern kernel.Kernel) *Driver {
	return &Driver{
		cfg:  cfg,
		ctx:  execCtx,
		kern: kern,
	}
}

// setupTestDir creates the directory erroring test cases are written to.
// A temporary directory (no cfg.TestcaseDir) gets an atexit handler that
// removes it when the process leaves through atexit.Exit and no guest error
// was recorded; a configured directory is never removed.
func (d *Driver) setupTestDir() error {
	if d.cfg.TestcaseDir != "" {
		if err := os.MkdirAll(d.cfg.TestcaseDir, 0o755); err != nil {
			return err
		}
		d.testDir = d.cfg.TestcaseDir
		return nil
	}

	dir, err := os.MkdirTemp("", "symex-")
	if err != nil {
		return err
	}
	d.testDir = dir
	atexit.Register(func() {
		if d.errCount == 0 {
			os.RemoveAll(dir)
		}
	})
	return nil
}

func (d *Driver) dumpTestCase(label string, s store.Store) {
	if d.testDir == "" {
		return
	}
	path := fmt.Sprintf("%s/%s%d", d.testDir, label, d.errCount)
	if err := testcase.WriteFile(path, &s); err != nil {
		fmt.Fprintf(os.Stderr, "symex: failed writing test case %s: %v\n", path, err)
	}
}

// Explore runs the main loop until the path tree is fully negated, the
// configured time budget expires, ctx is cancelled, or (when
// cfg.ExitOnError is set) the first guest error is observed.
func (d *Driver) Explore(ctx context.Context) (Report, error) {
	if err := d.setupTestDir(); err != nil {
		return Report{}, err
	}

	start := time.Now()
	current := store.Store{}
	d.ctx.InstallStore(current)

	for {
		if d.cfg.TimeBudget > 0 && time.Since(start) >= d.cfg.TimeBudget {
			break
		}
		select {
		case <-ctx.Done():
			return d.report(), ctx.Err()
		default:
		}

		d.ctx.Trace().Reset()
		if err := d.kern.Reset(ctx); err != nil {
			return d.report(), err
		}

		outcome, err := d.kern.Simulate(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return d.report(), err
		}
		d.pathCount++

		if outcome.HostError != nil {
			d.errCount++
			cur := d.ctx.CurStore()
			guestErr := &GuestError{Err: outcome.HostError, Store: cur}
			d.guestErrors = append(d.guestErrors, guestErr)
			d.dumpTestCase("error", cur)
			if d.cfg.ExitOnError {
				break
			}
		}

		next, err := d.ctx.Advance()
		if err != nil {
			if errors.Is(err, execctx.ErrExhausted) {
				break
			}
			return d.report(), err
		}
		d.ctx.InstallStore(next)
	}

	return d.report(), nil
}

// Errors returns every GuestError observed during Explore, in discovery
// order.
func (d *Driver) Errors() []*GuestError {
	out := make([]*GuestError, len(d.guestErrors))
	copy(out, d.guestErrors)
	return out
}

func (d *Driver) report() Report {
	stats := d.ctx.Solver().Stats()
	return Report{
		UniquePaths: d.pathCount,
		SolverTime:  stats.TotalSolveTime,
		Errors:      d.errCount,
		TestcaseDir: d.testDir,
	}
}

// RunSingle replays a single previously-recorded test case against the
// kernel once, without exploring further paths — the §6 "replay" mode
// mirroring symbolic_explore.cpp's run_test(). execCtx must be the same
// Context the kernel's guest program was built against.
func RunSingle(ctx context.Context, execCtx *execctx.Context, kern kernel.Kernel, tc *store.Store) (kernel.Outcome, error) {
	execCtx.InstallStore(*tc)

	if err := kern.Reset(ctx); err != nil {
		return kernel.Outcome{}, err
	}
	return kern.Simulate(ctx)
}
