// Package notify implements the Publication & Notification layer
// (spec.md §4.6): after a command mutates a document, its change frames
// are published on a per-key channel, a keyspace event is emitted, and
// (if configured) an optional Web Push fan-out reaches registered
// subscribers — all before the command's reply reaches its caller, so a
// client that sees a reply is guaranteed every side-effect already
// happened in that order.
package notify

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"

	"github.com/maruel/ksid"

	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/host"
)

// ChannelFor returns the pub/sub channel name a key's change frames are
// published on.
func ChannelFor(key string) string {
	return "changes:" + key
}

// Notifier drives the publish → keyspace-event sequence for one host,
// and owns the registry of push subscriptions for the optional Web Push
// sink.
type Notifier struct {
	host host.Host
	push *pushSink

	mu   sync.Mutex
	subs map[string][]Subscription // key -> push subscriptions
}

// New builds a Notifier over h. push may be nil to disable the Web Push
// sink entirely.
func New(h host.Host, push *pushSink) *Notifier {
	return &Notifier{host: h, push: push, subs: make(map[string][]Subscription)}
}

// Announce publishes every change frame produced by a write command, in
// order, then emits one keyspace event for cmdName. The debug log lines
// Announce writes share one fresh k-sortable correlation ID, so the
// publishes and the keyspace event of one call can be grepped together;
// the command-log emission and shadow update are not tagged with it.
func (n *Notifier) Announce(ctx context.Context, key, cmdName string, frames [][]byte) error {
	corr := ksid.NewID().String()
	channel := ChannelFor(key)
	for i, frame := range frames {
		payload := base64.StdEncoding.EncodeToString(frame)
		if err := n.host.Publish(ctx, channel, []byte(payload)); err != nil {
			return amerr.Newf(amerr.HostLogError, "publish change frame %d/%d for %q", i+1, len(frames), key).Wrap(err)
		}
		slog.Debug("published change frame", "corr", corr, "key", key, "cmd", cmdName, "channel", channel, "frame", i)
	}
	if err := n.host.NotifyKeyspaceEvent(ctx, eventName(cmdName), key); err != nil {
		return amerr.Newf(amerr.HostLogError, "emit keyspace event for %q", key).Wrap(err)
	}
	slog.Debug("notified keyspace event", "corr", corr, "key", key, "cmd", cmdName)

	if n.push != nil && len(frames) > 0 {
		n.push.fanOut(ctx, n.subscriptionsFor(key), key, cmdName)
	}
	return nil
}

// eventName lowercases a command name the way Redis/Valkey keyspace
// notifications name their events (e.g. "AM.PUTTEXT" -> "am.puttext").
func eventName(cmdName string) string {
	out := make([]byte, len(cmdName))
	for i := 0; i < len(cmdName); i++ {
		c := cmdName[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// RegisterPush adds a Web Push subscription to be fanned out to on every
// announced change for key.
func (n *Notifier) RegisterPush(key string, sub Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs[key] = append(n.subs[key], sub)
}

func (n *Notifier) subscriptionsFor(key string) []Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Subscription(nil), n.subs[key]...)
}
