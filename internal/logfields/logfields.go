package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask         = "task"
	KeyKind         = "kind"
	KeySubscription = "subscription"
	KeyRole         = "role"
	KeyPath         = "path"
	KeyFile         = "file"
	KeyOp           = "op"
	KeyMode         = "mode"
	KeyRunID        = "run_id"
	KeyDurationMS   = "duration_ms"
	KeyChannel      = "channel"
	KeyClients      = "clients"
	KeyError        = "error"
	KeyMethod       = "method"
	KeyStatus       = "status"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr         { return slog.String(KeyTask, name) }
func Kind(k string) slog.Attr            { return slog.String(KeyKind, k) }
func Subscription(name string) slog.Attr { return slog.String(KeySubscription, name) }
func Role(r string) slog.Attr            { return slog.String(KeyRole, r) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func File(f string) slog.Attr            { return slog.String(KeyFile, f) }
func Op(op string) slog.Attr             { return slog.String(KeyOp, op) }
func Mode(m string) slog.Attr            { return slog.String(KeyMode, m) }
func RunID(id string) slog.Attr          { return slog.String(KeyRunID, id) }
func Channel(c string) slog.Attr         { return slog.String(KeyChannel, c) }
func Clients(n int) slog.Attr            { return slog.Int(KeyClients, n) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
