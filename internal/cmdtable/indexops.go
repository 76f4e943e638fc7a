package cmdtable

import (
	"context"
	"fmt"
	"strings"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/shadowindex"
)

func registerIndexHandlers(m map[string]handlerFunc) {
	m["INDEX.CONFIGURE"] = cmdIndexConfigure
	m["INDEX.ENABLE"] = cmdIndexEnable
	m["INDEX.DISABLE"] = cmdIndexDisable
	m["INDEX.REINDEX"] = cmdIndexReindex
	m["INDEX.STATUS"] = cmdIndexStatus
}

// cmdIndexConfigure parses `pattern [--format flat|structured] path...`.
func cmdIndexConfigure(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("INDEX.CONFIGURE", args, 2); err != nil {
		return nil, err
	}
	pattern := args[0]
	rest := args[1:]
	format := shadowindex.Flat
	if len(rest) >= 2 && strings.EqualFold(rest[0], "--format") {
		f, err := shadowindex.ParseFormat(rest[1])
		if err != nil {
			return nil, err
		}
		format = f
		rest = rest[2:]
	}
	if len(rest) == 0 {
		return nil, amerr.New(amerr.BadArgs, "INDEX.CONFIGURE requires at least one path")
	}
	cfg, err := t.Shadow.Configure(pattern, rest, format)
	if err != nil {
		return nil, err
	}
	if err := shadowindex.SaveConfig(ctx, t.Registry.Host(), *cfg); err != nil {
		return nil, err
	}
	return OK, nil
}

func cmdIndexEnable(ctx context.Context, t *Table, args []string) (any, error) {
	return setIndexEnabled(ctx, t, args, "INDEX.ENABLE", true)
}

func cmdIndexDisable(ctx context.Context, t *Table, args []string) (any, error) {
	return setIndexEnabled(ctx, t, args, "INDEX.DISABLE", false)
}

func setIndexEnabled(ctx context.Context, t *Table, args []string, cmdName string, enabled bool) (any, error) {
	if err := requireArgs(cmdName, args, 1); err != nil {
		return nil, err
	}
	cfg, err := t.Shadow.SetEnabled(args[0], enabled)
	if err != nil {
		return nil, err
	}
	if err := shadowindex.SaveConfig(ctx, t.Registry.Host(), *cfg); err != nil {
		return nil, err
	}
	return OK, nil
}

// cmdIndexReindex forces a projection recompute for one document key and
// reports whether a write actually happened (1) or not (0) — no
// matching pattern, an unchanged fingerprint, and an empty projection
// (which clears any stale shadow key) all report 0.
func cmdIndexReindex(ctx context.Context, t *Table, args []string) (any, error) {
	if err := requireArgs("INDEX.REINDEX", args, 1); err != nil {
		return nil, err
	}
	key := args[0]
	if t.Engine == nil {
		return 0, nil
	}
	d, err := getDoc(ctx, t, key)
	if err != nil {
		return nil, err
	}
	wrote, err := t.Engine.Reindex(ctx, key, d)
	if err != nil {
		return nil, err
	}
	if wrote {
		return 1, nil
	}
	return 0, nil
}

// cmdIndexStatus reports either every configured pattern (no argument)
// or the configuration registered under exactly one pattern (one
// argument; an empty reply if that pattern is not configured).
func cmdIndexStatus(ctx context.Context, t *Table, args []string) (any, error) {
	if len(args) == 0 {
		return formatConfigs(t.Shadow.All()), nil
	}
	cfg, ok := t.Shadow.Get(args[0])
	if !ok {
		return formatConfigs(nil), nil
	}
	return formatConfigs([]shadowindex.Config{cfg}), nil
}

func formatConfigs(cfgs []shadowindex.Config) string {
	if len(cfgs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(cfgs))
	for _, c := range cfgs {
		state := "enabled"
		if !c.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("%s %s %s %s", c.Pattern, state, c.Format, strings.Join(c.Paths, ",")))
	}
	return strings.Join(lines, "\n")
}
