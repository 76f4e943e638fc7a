package shadowindex

import (
	"context"
	"encoding/json"
	"sort"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/amergekv/amergekv/internal/amdoc"
	"github.com/amergekv/amergekv/internal/amerr"
	"github.com/amergekv/amergekv/internal/host"
)

// Engine drives projection recompute against a Host, throttling bursts
// of reindex work (every recompute for a matching key, whether after a
// write or from INDEX.REINDEX, waits on one engine-wide token bucket) and
// skipping host writes whose content hasn't actually changed since the
// last projection.
type Engine struct {
	Registry *Registry
	host     host.Host
	limiter  *rate.Limiter
	last     map[string][32]byte // key -> fingerprint of last written projection
}

// NewEngine builds a reindex engine over registry and h. burst and
// perSecond bound how many key projections may be recomputed per second,
// across all keys and patterns together.
func NewEngine(registry *Registry, h host.Host, perSecond float64, burst int) *Engine {
	return &Engine{
		Registry: registry,
		host:     h,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		last:     make(map[string][32]byte),
	}
}

// Reindex recomputes and writes the projection for one document key, if
// a matching enabled pattern exists. It reports whether a write actually
// happened — a false result with a nil error means either no pattern
// matched, the pattern produced an empty projection (deleting any prior
// shadow key), or the computed projection was identical to what's
// already stored.
func (e *Engine) Reindex(ctx context.Context, key string, d *amdoc.Document) (bool, error) {
	cfg, ok := e.Registry.Match(key)
	if !ok {
		return false, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return false, amerr.New(amerr.Internal, "reindex rate limiter").Wrap(err)
	}

	idxKey := IndexKey(key)
	switch cfg.Format {
	case Structured:
		proj := ProjectStructured(d, cfg.Paths)
		if len(proj) == 0 {
			delete(e.last, key)
			return false, e.deleteShadow(ctx, idxKey)
		}
		fp, payload, err := fingerprintJSON(proj)
		if err != nil {
			return false, amerr.New(amerr.Internal, "fingerprint structured projection").Wrap(err)
		}
		if e.last[key] == fp {
			return false, nil
		}
		if err := e.host.PutStructured(ctx, idxKey, proj); err != nil {
			return false, amerr.Newf(amerr.HostLogError, "write structured shadow for %q", key).Wrap(err)
		}
		_ = payload
		e.last[key] = fp
		return true, nil
	default:
		proj := ProjectFlat(d, cfg.Paths)
		if len(proj) == 0 {
			delete(e.last, key)
			return false, e.deleteShadow(ctx, idxKey)
		}
		fp, err := fingerprintFlat(proj)
		if err != nil {
			return false, amerr.New(amerr.Internal, "fingerprint flat projection").Wrap(err)
		}
		if e.last[key] == fp {
			return false, nil
		}
		if err := e.host.PutBytesMap(ctx, idxKey, proj); err != nil {
			return false, amerr.Newf(amerr.HostLogError, "write flat shadow for %q", key).Wrap(err)
		}
		e.last[key] = fp
		return true, nil
	}
}

func (e *Engine) deleteShadow(ctx context.Context, idxKey string) error {
	if err := e.host.DeleteKey(ctx, idxKey); err != nil {
		return amerr.Newf(amerr.HostLogError, "clear shadow key %q", idxKey).Wrap(err)
	}
	return nil
}

// fingerprintFlat hashes a flat projection's sorted field=value pairs so
// equal maps always fingerprint identically regardless of Go's
// randomized map iteration order.
func fingerprintFlat(fields map[string]string) ([32]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h, err := blake2b.New256(nil)
	if err != nil {
		return [32]byte{}, err
	}
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(fields[k]))
		h.Write([]byte{0})
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// fingerprintJSON hashes the canonical JSON encoding of a structured
// projection (Go's encoding/json already sorts map keys on Marshal).
func fingerprintJSON(v any) ([32]byte, []byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return [32]byte{}, nil, err
	}
	sum := blake2b.Sum256(payload)
	return sum, payload, nil
}
