package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"":        INFO,
		"warning": WARN,
		" error ": ERROR,
		"fatal":   FATAL,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestWithFieldsSortsKeysAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(INFO)

	WithFields(map[string]interface{}{"b": 2, "a": 1}).Info("uploaded")
	WithFields(map[string]interface{}{"x": 1}).Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "uploaded | a=1, b=2")
	assert.NotContains(t, out, "hidden")
}
