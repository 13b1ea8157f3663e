package reload

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/patternpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/patternpipe/internal/logfields"
)

// NATSNotifier publishes reload messages to a NATS subject so tools outside
// the preview server (editors, device labs) can follow rebuilds.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	seq     atomic.Uint64
	logger  *slog.Logger
}

// NewNATSNotifier connects to url. The connection reconnects on its own;
// publishes during an outage are buffered by the client library.
func NewNATSNotifier(url, subject string, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("patternpipe"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.NotifyError(fmt.Sprintf("connect to NATS at %s", url)).
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	logger.Info("NATS reload notifier connected", slog.String("url", url), slog.String("subject", subject))
	return newNATSNotifier(conn, subject, logger), nil
}

func newNATSNotifier(conn *nats.Conn, subject string, logger *slog.Logger) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject, logger: logger}
}

// Notify publishes mode. Failures are logged.
func (n *NATSNotifier) Notify(mode Mode) {
	if mode == ModeNone || mode == "" {
		return
	}
	data, err := json.Marshal(Message{Mode: mode, Seq: n.seq.Add(1)})
	if err != nil {
		return
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		n.logger.Warn("Failed to publish reload message",
			logfields.Mode(string(mode)),
			slog.String("subject", n.subject),
			logfields.Error(err))
	}
}

// Close flushes pending messages and closes the connection.
func (n *NATSNotifier) Close() {
	if n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
