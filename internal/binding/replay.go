package binding

import (
	"context"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/host"
)

// Dispatch executes one already-parsed command; cmdtable.Table.Execute
// satisfies this signature, which is what ReplayLog is built to drive
// without binding needing to import cmdtable (which itself depends on
// binding).
type Dispatch func(ctx context.Context, cmdName string, args []string) error

// ReplayLog re-executes every entry of a host's command log through
// dispatch, in order, to reconstruct document state that exists only as
// a log tail (spec.md §4.4: "the log records the original user-level
// command for auditability", strategy (a) over logging raw change
// frames). A command that fails during replay aborts the whole replay —
// a corrupt or truncated log is not a state amergekv silently limps on
// from.
func ReplayLog(ctx context.Context, entries []host.LogEntry, dispatch Dispatch) error {
	for i, e := range entries {
		if err := dispatch(ctx, e.Cmd, e.Args); err != nil {
			return amerr.Newf(amerr.Internal, "replay log entry %d (%s)", i, e.Cmd).Wrap(err)
		}
	}
	return nil
}
