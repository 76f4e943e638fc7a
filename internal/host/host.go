// Package host defines the abstract surface amergekv consumes from its
// embedding key-value server. The server itself — command dispatch,
// client I/O, snapshot/log file formats, replication transport, pub/sub
// delivery, keyspace-event emission — is out of scope (spec.md §1); this
// package only states the contract the core core relies on.
package host

import "context"

// KeyType distinguishes the three host-native shapes amergekv touches.
type KeyType int

const (
	// KeyTypeDocument is an opaque am-document blob (the Automerge save format).
	KeyTypeDocument KeyType = iota
	// KeyTypeBytesMap is a flat string/string map (a Redis Hash analogue).
	KeyTypeBytesMap
	// KeyTypeStructured is an arbitrary JSON-shaped value (a ReJSON analogue).
	KeyTypeStructured
)

// Host is the abstract API amergekv needs from its embedding server.
//
// Every method is synchronous: the host is assumed to serialize command
// execution per key (spec.md §5), so implementations need no internal
// locking beyond what protects their own bookkeeping.
type Host interface {
	// LoadDocument returns the am-document blob bound to key, or ok=false
	// if key does not exist or is not an am-document.
	LoadDocument(ctx context.Context, key string) (blob []byte, ok bool, err error)
	// StoreDocument binds key as an am-document with the given snapshot blob,
	// replacing any prior binding (and any prior key of a different type).
	StoreDocument(ctx context.Context, key string, blob []byte) error
	// DeleteKey releases whatever is bound to key, of any type.
	DeleteKey(ctx context.Context, key string) error
	// KeyExists reports whether key is bound to anything, and to what type.
	KeyExists(ctx context.Context, key string) (exists bool, typ KeyType, err error)

	// EmitLog appends a semantically-equivalent command to the host's
	// append-only command log, for snapshot+log-tail replay (spec.md §4.4).
	EmitLog(ctx context.Context, cmdName string, args []string) error

	// Publish sends payload on channel to any subscribers. Fire-and-forget:
	// failures are the caller's to log and swallow (spec.md §5).
	Publish(ctx context.Context, channel string, payload []byte) error

	// NotifyKeyspaceEvent emits the host's standard keyspace-notification
	// event for key.
	NotifyKeyspaceEvent(ctx context.Context, event, key string) error

	// GetBytesMap reads a sibling key of type bytes-map (e.g. cfg:<pattern>).
	GetBytesMap(ctx context.Context, key string) (fields map[string]string, ok bool, err error)
	// PutBytesMap writes a sibling key of type bytes-map, replacing it.
	PutBytesMap(ctx context.Context, key string, fields map[string]string) error
	// GetStructured reads a sibling key of type structured-json (e.g. idx:<key>).
	GetStructured(ctx context.Context, key string) (value any, ok bool, err error)
	// PutStructured writes a sibling key of type structured-json, replacing it.
	PutStructured(ctx context.Context, key string, value any) error
}
