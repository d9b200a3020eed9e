package cfg

import (
	"net/url"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, input, output interface{}) error {
	t.Helper()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     output,
	})
	require.NoError(t, err)
	return decoder.Decode(input)
}

func TestDecodeHook_OctalField(t *testing.T) {
	var out struct{ Mode Octal }
	require.NoError(t, decode(t, map[string]interface{}{"Mode": "755"}, &out))
	assert.Equal(t, Octal(0o755), out.Mode)
}

func TestDecodeHook_LogSeverityField(t *testing.T) {
	var out struct{ Severity LogSeverity }
	require.NoError(t, decode(t, map[string]interface{}{"Severity": "debug"}, &out))
	assert.Equal(t, DebugLogSeverity, out.Severity)
}

func TestDecodeHook_CacheStrategyField(t *testing.T) {
	var out struct{ Strategy CacheStrategy }
	require.NoError(t, decode(t, map[string]interface{}{"Strategy": "LRU"}, &out))
	assert.Equal(t, CacheStrategyLRU, out.Strategy)
}

func TestDecodeHook_URLField(t *testing.T) {
	var out struct{ U url.URL }
	require.NoError(t, decode(t, map[string]interface{}{"U": "http://example.com/path"}, &out))
	assert.Equal(t, "example.com", out.U.Host)
}

func TestDecodeHook_DurationField(t *testing.T) {
	var out struct{ D time.Duration }
	require.NoError(t, decode(t, map[string]interface{}{"D": "5s"}, &out))
	assert.Equal(t, 5*time.Second, out.D)
}
