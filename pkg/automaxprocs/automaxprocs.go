package automaxprocs

import (
	"fmt"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/ramaorbit/orbit-engine/pkg/logger"
	"go.uber.org/automaxprocs/maxprocs"
)

// undo is the undo function returned by maxprocs.Set
var undo func()

// Init sets GOMAXPROCS to match the Linux container CPU quota (if any).
// It is a no-op on non-Linux systems and in Linux environments without a
// configured CPU quota.
func Init() error {
	setMaxProcsLogger := func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "package", "automaxprocs")
	}

	revert, err := maxprocs.Set(maxprocs.Logger(setMaxProcsLogger), maxprocs.Min(1))
	if err != nil {
		return errors.WithStack(err)
	}
	undo = revert
	return nil
}

// Undo restores GOMAXPROCS to its previous value and
// returns the current GOMAXPROCS value.
func Undo() int {
	if undo != nil {
		undo()
	}
	return Current()
}

// Current returns the current value of GOMAXPROCS.
func Current() int {
	return runtime.GOMAXPROCS(0)
}
