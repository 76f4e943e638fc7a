package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/amergekv/amergekv/internal/config"
)

// Subscription is one browser's Web Push registration against a key, the
// way a client would register interest in a document's change stream
// without holding an open pub/sub connection.
type Subscription struct {
	Endpoint string
	Auth     string
	P256dh   string
}

// pushSink fans an announced change out to every registered push
// subscription for a key. Delivery is best-effort: a failed send is
// logged and otherwise ignored, since Announce's ordering guarantee
// (frames published in order, then the keyspace event) does not extend
// to this optional sink.
type pushSink struct {
	cfg config.WebPushConfig
}

// NewPushSink builds the optional Web Push sink from bootstrap config,
// or returns nil if it's disabled.
func NewPushSink(cfg config.WebPushConfig) *pushSink {
	if !cfg.Enabled {
		return nil
	}
	return &pushSink{cfg: cfg}
}

type pushPayload struct {
	Key string `json:"key"`
	Cmd string `json:"cmd"`
}

func (s *pushSink) fanOut(ctx context.Context, subs []Subscription, key, cmdName string) {
	if len(subs) == 0 {
		return
	}
	payload, err := json.Marshal(pushPayload{Key: key, Cmd: cmdName})
	if err != nil {
		slog.Warn("notify: encode push payload failed", "err", err)
		return
	}
	for _, sub := range subs {
		wpSub := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				Auth:   sub.Auth,
				P256dh: sub.P256dh,
			},
		}
		resp, err := webpush.SendNotificationWithContext(ctx, payload, wpSub, &webpush.Options{
			Subscriber:      s.cfg.Subscriber,
			VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
			VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
			TTL:             30,
		})
		if err != nil {
			slog.Warn("notify: web push delivery failed", "endpoint", sub.Endpoint, "err", err)
			continue
		}
		_ = resp.Body.Close()
	}
}
