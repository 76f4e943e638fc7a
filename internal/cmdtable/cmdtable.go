// Package cmdtable wires every command in spec.md §6's command surface
// to the amdoc/changeproto/shadowindex/notify/binding packages, with
// argument arity/shape validation at the boundary (spec.md "Wiring").
package cmdtable

import (
	"context"
	"log/slog"
	"strings"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/binding"
	"github.com/amergekv/amergekv/internal/notify"
	"github.com/amergekv/amergekv/internal/shadowindex"
)

// OK is the reply every OK-returning command produces.
const OK = "OK"

// handlerFunc executes one parsed command and returns its reply.
type handlerFunc func(ctx context.Context, t *Table, args []string) (any, error)

// Table dispatches command names to handlers and owns the collaborators
// every handler needs: the document registry, the shadow-index registry
// and reindex engine, and the publish/notify sink.
type Table struct {
	Registry *binding.Registry
	Shadow   *shadowindex.Registry
	Engine   *shadowindex.Engine
	Notifier *notify.Notifier
	Logger   *slog.Logger

	handlers map[string]handlerFunc
}

// New builds a command table wired to the given collaborators. logger
// may be nil, in which case slog.Default() is used.
func New(reg *binding.Registry, shadow *shadowindex.Registry, engine *shadowindex.Engine, notifier *notify.Notifier, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Table{Registry: reg, Shadow: shadow, Engine: engine, Notifier: notifier, Logger: logger}
	t.handlers = buildHandlers()
	return t
}

// writeCommands names every command that mutates a document or the
// shadow-index registry, the ones worth replaying from the host's
// command log on startup (spec.md §4.4: "the log records the original
// user-level command for auditability").
var writeCommands = map[string]bool{
	"NEW": true, "LOAD": true, "APPLY": true, "FROMJSON": true, "DELETE": true,
	"PUTTEXT": true, "PUTINT": true, "PUTDOUBLE": true, "PUTBOOL": true,
	"PUTCOUNTER": true, "PUTTIMESTAMP": true, "INCCOUNTER": true,
	"SPLICETEXT": true, "PUTDIFF": true, "CREATELIST": true,
	"APPENDTEXT": true, "APPENDINT": true, "APPENDDOUBLE": true, "APPENDBOOL": true,
	"MARKCREATE": true, "MARKCLEAR": true,
	"INDEX.CONFIGURE": true, "INDEX.ENABLE": true, "INDEX.DISABLE": true,
}

// Execute dispatches cmdName (case-insensitive) against args. Unknown
// commands and arity failures surface as BAD_ARGS. A successful write
// command is appended to the host's command log for startup replay; a
// failure to log it is itself surfaced as HOST_LOG_ERROR, since a write
// the host didn't durably log cannot be reconstructed after a restart.
func (t *Table) Execute(ctx context.Context, cmdName string, args []string) (any, error) {
	upper := strings.ToUpper(cmdName)
	h, ok := t.handlers[upper]
	if !ok {
		return nil, amerr.Newf(amerr.BadArgs, "unknown command %q", cmdName)
	}
	reply, err := h(ctx, t, args)
	if err != nil {
		return nil, err
	}
	if writeCommands[upper] {
		if logErr := t.Registry.Host().EmitLog(ctx, upper, args); logErr != nil {
			return nil, amerr.Newf(amerr.HostLogError, "append %s to command log", upper).Wrap(logErr)
		}
	}
	return reply, nil
}

// ExecuteReplay runs a command without re-appending it to the host's
// command log — the dispatch entry point startup log replay uses, since
// every entry it's given already came from that same log (binding.ReplayLog's
// Dispatch, satisfied by this method rather than Execute).
func (t *Table) ExecuteReplay(ctx context.Context, cmdName string, args []string) (any, error) {
	h, ok := t.handlers[strings.ToUpper(cmdName)]
	if !ok {
		return nil, amerr.Newf(amerr.BadArgs, "unknown command %q", cmdName)
	}
	return h(ctx, t, args)
}

func requireArgs(cmdName string, args []string, min int) error {
	if len(args) < min {
		return amerr.Newf(amerr.BadArgs, "%s requires at least %d argument(s), got %d", cmdName, min, len(args))
	}
	return nil
}

// mutate resolves key to its bound document (which must already exist —
// NOT_FOUND otherwise), runs fn against it, and on success drives the
// full post-write sequence in order: persist to host, publish every
// produced change frame + keyspace event, then recompute the shadow
// projection if a pattern matches. Per spec.md §5: a write error (from
// fn, or from Persist — the document isn't durably stored yet) aborts
// with no partial side effects: no publish, no keyspace event, no
// shadow update. Once the mutation is committed and persisted,
// publish/notify/shadow failures are logged and swallowed rather than
// surfaced to the caller — the write itself already succeeded.
func (t *Table) mutate(ctx context.Context, cmdName, key string, fn func(d *amdoc.Document) ([][]byte, error)) error {
	d, ok, err := t.Registry.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return amerr.Newf(amerr.NotFound, "key %q is not a document", key)
	}
	frames, err := fn(d)
	if err != nil {
		return err
	}
	if err := t.Registry.Persist(ctx, key); err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}
	if err := t.Notifier.Announce(ctx, key, cmdName, frames); err != nil {
		t.Logger.Error("post-commit announce failed", "cmd", cmdName, "key", key, "err", err)
	}
	if t.Engine != nil {
		if _, err := t.Engine.Reindex(ctx, key, d); err != nil {
			t.Logger.Error("post-commit reindex failed", "cmd", cmdName, "key", key, "err", err)
		}
	}
	return nil
}

func buildHandlers() map[string]handlerFunc {
	m := map[string]handlerFunc{}
	registerDocHandlers(m)
	registerTypeHandlers(m)
	registerIndexHandlers(m)
	return m
}
