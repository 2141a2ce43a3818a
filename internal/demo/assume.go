package demo

import (
	"errors"
	"fmt"
	"math/big"

	"symex/pkg/execctx"
	"symex/pkg/kernel"
	"symex/pkg/trace"
)

// AssumeProgram is the reference guest program for spec §8 scenario 3: it
// reads one symbolic byte, asserts (via Trace.Assume) that it must be
// greater than 5, then checks that it is positive. The run that discovers
// the assume point for the first time aborts via the assume-notification
// mechanism rather than finishing; once the path tree negates that branch,
// the resulting run carries an x satisfying the assumption and the
// assertion holds.
type AssumeProgram struct {
	execCtx *execctx.Context
}

// NewAssume creates an AssumeProgram sharing execCtx with the driver.
func NewAssume(execCtx *execctx.Context) *AssumeProgram {
	return &AssumeProgram{execCtx: execCtx}
}

func (p *AssumeProgram) Reset() error { return nil }

func (p *AssumeProgram) Step() (kernel.Outcome, bool, error) {
	name := "x"
	x := p.execCtx.BVC(&name, []byte{0})
	five := p.execCtx.Const(big.NewInt(5), 8)
	zero := p.execCtx.Const(big.NewInt(0), 8)

	tr := p.execCtx.Trace()
	if err := tr.Assume(x.Ugt(five), 0x2000); err != nil {
		if errors.Is(err, trace.ErrAssumeNotification) {
			return kernel.Outcome{Stopped: true}, true, nil
		}
		return kernel.Outcome{}, false, err
	}

	if x.Ugt(zero).Concrete().Sign() == 0 {
		err := fmt.Errorf("assertion failed: x > 0 (x=%d)", x.Concrete())
		return kernel.Outcome{HostError: err}, true, nil
	}
	return kernel.Outcome{ExitCode: 0}, true, nil
}
