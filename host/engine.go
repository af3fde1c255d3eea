package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero/sys"

	"github.com/reglet-dev/reglet-extensions/domain/entities"
	domainerrors "github.com/reglet-dev/reglet-extensions/domain/errors"
	"github.com/reglet-dev/reglet-extensions/domain/ports"
	infrawazero "github.com/reglet-dev/reglet-extensions/infrastructure/wazero"
)

// EntryPoint is the export Run calls.
const EntryPoint = "main"

var _ ports.ProgramEngine = (*Executor)(nil)

// Run executes program once with args as input. One unit of gas is one
// nanosecond of wall time: the call is cut off when gasLimit runs out and
// gasUsed is the elapsed time. Each run gets a fresh extension registry
// from the executor's factory, released when the run ends.
func (e *Executor) Run(ctx context.Context, program, args []byte, gasLimit int64) ([]byte, int64, error) {
	if gasLimit <= 0 {
		return nil, 0, domainerrors.NewProgramError(entities.ProgramErrorWeightLimit, fmt.Errorf("gas limit %d", gasLimit))
	}

	compiled, err := e.runtime.CompileModule(ctx, program)
	if err != nil {
		return nil, 0, domainerrors.NewProgramError(entities.ProgramErrorInvalidFormat, err)
	}
	defer func() { _ = compiled.Close(ctx) }()

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(gasLimit))
	defer cancel()

	gasUsed := func() int64 {
		return min(int64(time.Since(start)), gasLimit)
	}

	inst, err := e.instantiate(runCtx, compiled)
	if err != nil {
		return nil, gasUsed(), classify(runCtx, err)
	}
	defer func() {
		if cerr := inst.Close(ctx); cerr != nil {
			e.logger.WarnContext(ctx, "failed to release run", "error", cerr)
		}
	}()

	out, err := inst.Call(runCtx, EntryPoint, args)
	if err != nil {
		return nil, gasUsed(), classify(runCtx, err)
	}
	return out, gasUsed(), nil
}

// classify maps a guest failure to a ProgramError.
func classify(runCtx context.Context, err error) error {
	code := entities.ProgramErrorTrap

	var exitErr *sys.ExitError
	var memErr *domainerrors.MemoryError
	var hostErr *infrawazero.HostCallError
	switch {
	case errors.As(err, &exitErr) && exitErr.ExitCode() == sys.ExitCodeDeadlineExceeded,
		errors.Is(runCtx.Err(), context.DeadlineExceeded):
		code = entities.ProgramErrorWeightLimit
	case errors.As(err, &hostErr):
		code = entities.ProgramErrorHostCall
	case errors.As(err, &memErr):
		code = entities.ProgramErrorMemoryAccess
	case errors.Is(err, ErrExportNotFound), errors.Is(err, infrawazero.ErrNoAllocate):
		code = entities.ProgramErrorInvalidFormat
	case errors.As(err, &exitErr):
		code = entities.ProgramErrorOther
	}
	return domainerrors.NewProgramError(code, err)
}
