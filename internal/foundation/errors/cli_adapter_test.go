package errors

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "config error", err: ConfigError("missing role").Build(), expected: 7},
		{name: "source unavailable", err: SourceUnavailableError("no dir").Build(), expected: 11},
		{name: "external build", err: ExternalBuildError("render failed").Build(), expected: 11},
		{name: "runtime error", err: RuntimeError("watcher died").Build(), expected: 12},
		{name: "internal error", err: InternalError("bug").Build(), expected: 10},
		{name: "wrapped classified", err: fmt.Errorf("load: %w", ConfigError("bad").Build()), expected: 7},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Empty(t, adapter.FormatError(nil))
	assert.Equal(t, "Internal error occurred (use -v for details)", adapter.FormatError(InternalError("internal issue").Build()))
	assert.Equal(t, "Error: missing path role", adapter.FormatError(ConfigError("missing path role").Build()))
	assert.Equal(t, "Error: unknown error", adapter.FormatError(&customError{msg: "unknown error"}))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Contains(t, verbose.FormatError(InternalError("internal issue").Build()), "[internal:fatal] internal issue")
}

func TestCLIErrorAdapter_HandleErrorExits(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	var code int
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ExternalBuildError("render failed").Build())
	assert.Equal(t, 11, code)
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
