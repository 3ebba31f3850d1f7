// Package events publishes completed traces over NATS so other tooling can
// react to debug runs without polling the cache.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/soltrace/soltrace/pkg/common/logger"
)

// TraceEvent is the wire envelope around a published trace.
type TraceEvent struct {
	Type      string          `json:"type"`
	Signature string          `json:"signature"`
	Trace     json.RawMessage `json:"trace"`
	Timestamp int64           `json:"timestamp"`
}

type Emitter struct {
	conn    *nats.Conn
	subject string
}

// Connect dials NATS with indefinite reconnects; a debug session should not
// die because the broker restarted.
func Connect(url, subject string) (*Emitter, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectHandler(func(nc *nats.Conn) {
			logger.Warn("disconnected from NATS")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Emitter{conn: conn, subject: subject}, nil
}

// Emit publishes one completed trace. payload is the already marshalled
// trace document.
func (e *Emitter) Emit(ctx context.Context, signature string, payload []byte) error {
	event := TraceEvent{
		Type:      "trace",
		Signature: signature,
		Trace:     payload,
		Timestamp: time.Now().UTC().Unix(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return e.conn.Publish(e.subject, data)
}

func (e *Emitter) Close() {
	if e.conn != nil {
		_ = e.conn.Drain()
	}
}
