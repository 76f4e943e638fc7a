// Command amergekv runs amergekv as a standalone process against an
// in-memory host (internal/host.MemHost), reading commands one per line
// from stdin and writing replies to stdout — a demo/debugging harness,
// not a production deployment. A real deployment embeds the
// internal/cmdtable.Table and internal/host.Host interfaces into its own
// server process (spec.md §1: host server internals are out of scope).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/binding"
	"github.com/amergekv/amergekv/internal/cmdtable"
	"github.com/amergekv/amergekv/internal/config"
	"github.com/amergekv/amergekv/internal/host"
	"github.com/amergekv/amergekv/internal/logging"
	"github.com/amergekv/amergekv/internal/notify"
	"github.com/amergekv/amergekv/internal/shadowindex"
)

func main() {
	if err := mainImpl(); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "amergekv: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "Path to a YAML bootstrap config file (optional)")
	dataDir := flag.String("data-dir", "", "Data directory (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	if len(flag.Args()) > 0 {
		return fmt.Errorf("unknown arguments: %v", flag.Args())
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	h, err := host.NewMemHost(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initialize host: %w", err)
	}
	defer func() { _ = h.Close() }()

	var archive *binding.SnapshotArchive
	if cfg.SnapshotArchiveDir != "" {
		archive, err = binding.OpenSnapshotArchive(cfg.SnapshotArchiveDir)
		if err != nil {
			return fmt.Errorf("open snapshot archive: %w", err)
		}
	}
	registry := binding.New(h, archive)

	shadow := shadowindex.NewRegistry()
	for _, rule := range cfg.Indexes {
		format, err := shadowindex.ParseFormat(rule.Format)
		if err != nil {
			return fmt.Errorf("index rule %q: %w", rule.Pattern, err)
		}
		if _, err := shadow.Configure(rule.Pattern, rule.Paths, format); err != nil {
			return fmt.Errorf("configure index rule %q: %w", rule.Pattern, err)
		}
		if _, err := shadow.SetEnabled(rule.Pattern, rule.Enabled); err != nil {
			return fmt.Errorf("enable index rule %q: %w", rule.Pattern, err)
		}
	}
	engine := shadowindex.NewEngine(shadow, h, cfg.ReindexPerSecond, cfg.ReindexBurst)

	push := notify.NewPushSink(cfg.WebPush)
	notifier := notify.New(h, push)

	table := cmdtable.New(registry, shadow, engine, notifier, logger)

	if err := replayCommandLog(ctx, h, table); err != nil {
		return fmt.Errorf("replay command log: %w", err)
	}

	var watcher *config.Watcher
	if *configPath != "" {
		watcher, err = config.WatchFile(*configPath, func(reloaded *config.Config) {
			logger.Info("config reloaded", "path", *configPath)
			for _, rule := range reloaded.Indexes {
				format, err := shadowindex.ParseFormat(rule.Format)
				if err != nil {
					logger.Warn("reloaded index rule invalid, skipping", "pattern", rule.Pattern, "err", err)
					continue
				}
				if _, err := shadow.Configure(rule.Pattern, rule.Paths, format); err != nil {
					logger.Warn("reloaded index rule rejected, skipping", "pattern", rule.Pattern, "err", err)
					continue
				}
				_, _ = shadow.SetEnabled(rule.Pattern, rule.Enabled)
			}
		})
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer func() { _ = watcher.Close() }()
	}

	logger.Info("amergekv ready", "data_dir", cfg.DataDir)
	return runCommandLoop(ctx, table, os.Stdin, os.Stdout, logger)
}

// replayCommandLog reconstructs every document that exists only as a log
// tail past its last snapshot, by re-executing the host's recorded
// commands in order without re-appending them to that same log.
func replayCommandLog(ctx context.Context, h *host.MemHost, table *cmdtable.Table) error {
	entries, err := h.ReadLog()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	dispatch := func(ctx context.Context, cmdName string, args []string) error {
		_, err := table.ExecuteReplay(ctx, cmdName, args)
		return err
	}
	return binding.ReplayLog(ctx, entries, dispatch)
}

// runCommandLoop reads whitespace-separated commands one per line from
// in, executes each against table, and writes the reply (or error) to
// out. Arguments are split on every run of whitespace with no quoting, so
// a value that itself contains whitespace (JSON blobs, diff text,
// document bytes) arrives as several separate arguments.
func runCommandLoop(ctx context.Context, table *cmdtable.Table, in *os.File, out *os.File, logger *slog.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		cmdName, args := fields[0], fields[1:]

		reply, err := table.Execute(ctx, cmdName, args)
		if err != nil {
			var ae *amerr.Error
			if errorsAs(err, &ae) {
				fmt.Fprintf(writer, "ERR %s %s\n", ae.Code(), ae.Error())
			} else {
				logger.Error("unexpected command error", "cmd", cmdName, "err", err)
				fmt.Fprintf(writer, "ERR INTERNAL %v\n", err)
			}
			writer.Flush()
			continue
		}
		fmt.Fprintf(writer, "%s\n", formatReply(reply))
		writer.Flush()
	}
	return scanner.Err()
}

// errorsAs reports whether err itself is an *amerr.Error and, if so,
// stores it in target. Unlike errors.As it does not look through wrapped
// errors.
func errorsAs(err error, target **amerr.Error) bool {
	if ae, ok := err.(*amerr.Error); ok {
		*target = ae
		return true
	}
	return false
}

// formatReply renders a command's reply for the line-oriented protocol:
// bytes print as raw text (JSON/document blobs), a nil read result
// prints as "(nil)" the way a client should interpret a missing value,
// and everything else falls back to its default formatting.
func formatReply(reply any) string {
	switch v := reply.(type) {
	case nil:
		return "(nil)"
	case []byte:
		return string(v)
	case [][]byte:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = string(f)
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}
