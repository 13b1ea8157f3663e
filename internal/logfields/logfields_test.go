package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Task", KeyTask, "pl-copy:css", Task("pl-copy:css")},
		{"Kind", KeyKind, "sequence", Kind("sequence")},
		{"Subscription", KeySubscription, "styles", Subscription("styles")},
		{"Role", KeyRole, "source.css", Role("source.css")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "main.scss", File("main.scss")},
		{"Op", KeyOp, "change", Op("change")},
		{"Mode", KeyMode, "style-reload", Mode("style-reload")},
		{"RunID", KeyRunID, "abc", RunID("abc")},
		{"Channel", KeyChannel, "styles", Channel("styles")},
	}

	for _, tc := range cases {
		// Key drift would break log ingestion schemas.
		assert.Equal(t, tc.attrKey, tc.attr.Key, tc.name)
		assert.Equal(t, tc.attrVal, tc.attr.Value.String(), tc.name)
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	d := Duration(1500 * time.Microsecond)
	assert.Equal(t, KeyDurationMS, d.Key)
	assert.InDelta(t, 1.5, d.Value.Float64(), 0.0001)

	c := Clients(3)
	assert.Equal(t, int64(3), c.Value.Int64())

	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
