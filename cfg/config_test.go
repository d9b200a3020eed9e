package cfg

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlags_DefaultsUnmarshalToValidConfig(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Parse(nil))

	var cfg Config
	require.NoError(t, viper.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())))

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Client.ServerURL)
	assert.Equal(t, CacheStrategyTTL, cfg.Client.CacheStrategy)
	assert.EqualValues(t, 2, cfg.Client.CacheTTLSeconds)
	assert.EqualValues(t, 1024, cfg.Client.CacheLRUCapacity)
	assert.Equal(t, Octal(0o644), cfg.FileSystem.FileMode)
	assert.Equal(t, Octal(0o755), cfg.FileSystem.DirMode)
	assert.NoError(t, ValidateConfig(&cfg))
}

func TestBindFlags_OverriddenServerURL(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	require.NoError(t, BindFlags(flagSet))
	require.NoError(t, flagSet.Parse([]string{"--server-url=http://example.com:9000"}))

	var cfg Config
	require.NoError(t, viper.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())))
	assert.Equal(t, "http://example.com:9000", cfg.Client.ServerURL)
}

func TestBindServerFlags_DefaultsUnmarshalToValidConfigGivenRoot(t *testing.T) {
	viper.Reset()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	require.NoError(t, BindServerFlags(flagSet))
	require.NoError(t, flagSet.Parse([]string{"--root=/srv/data"}))

	var cfg ServerConfig
	require.NoError(t, viper.Unmarshal(&cfg, viper.DecodeHook(DecodeHook())))

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.NoError(t, ValidateServerConfig(&cfg))
}
