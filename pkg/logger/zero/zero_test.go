package zero_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell.go/pkg/logger/zero"
)

func TestHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := zero.New(&buf)

	cases := []struct {
		fn    func(msg string, args ...any)
		level string
	}{
		{h.Error, "error"},
		{h.Warn, "warn"},
		{h.Info, "info"},
		{h.Debug, "debug"},
	}

	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			buf.Reset()
			tc.fn("something happened", "path", "/api/notes", "attempt", 2)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tc.level, entry["level"])
			assert.Equal(t, "something happened", entry["message"])
			assert.Equal(t, "/api/notes", entry["path"])
			assert.EqualValues(t, 2, entry["attempt"])
			assert.Contains(t, entry, "time")
		})
	}
}

func TestHandlerDanglingKey(t *testing.T) {
	var buf bytes.Buffer
	h := zero.New(&buf)
	h.Info("odd args", "key")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "key", entry["arg"], "a trailing key is preserved, not dropped")
}
