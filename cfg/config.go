package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the client binary's configuration: how the mount talks to its
// server and caches what it learns about remote paths.
type Config struct {
	AppName string `yaml:"app-name"`

	Debug DebugConfig `yaml:"debug"`

	Logging LoggingConfig `yaml:"logging"`

	FileSystem FileSystemConfig `yaml:"file-system"`

	Client ClientConfig `yaml:"client"`
}

type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation"`

	LogMutex bool `yaml:"log-mutex"`
}

// FileSystemConfig controls the POSIX identity the mount presents.
type FileSystemConfig struct {
	FileMode Octal `yaml:"file-mode"`
	DirMode  Octal `yaml:"dir-mode"`

	Uid int `yaml:"uid"`
	Gid int `yaml:"gid"`
}

// ClientConfig controls how the mount reaches its server and caches
// attributes it learns from it.
type ClientConfig struct {
	ServerURL string `yaml:"server-url"`

	CacheStrategy    CacheStrategy `yaml:"cache-strategy"`
	CacheTTLSeconds  uint64        `yaml:"cache-ttl-seconds"`
	CacheLRUCapacity uint64        `yaml:"cache-lru-capacity"`

	RequestTimeoutSecs uint64 `yaml:"request-timeout-secs"`
}

// BindFlags registers the client binary's flags on flagSet and binds them
// into viper so a parsed Config reflects either flag or config-file values.
func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("app-name", "", "restfuse", "The application name of this mount.")
	if err = viper.BindPFlag("app-name", flagSet.Lookup("app-name")); err != nil {
		return err
	}

	flagSet.BoolP("debug_invariants", "", false, "Exit when internal invariants are violated.")
	if err = viper.BindPFlag("debug.exit-on-invariant-violation", flagSet.Lookup("debug_invariants")); err != nil {
		return err
	}

	flagSet.BoolP("debug_mutex", "", false, "Print debug messages when a mutex is held too long.")
	if err = viper.BindPFlag("debug.log-mutex", flagSet.Lookup("debug_mutex")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", string(InfoLogSeverity), "Log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log line format: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file; empty logs to stderr.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.IntP("file-mode", "", 0644, "Permission bits presented for files, in octal.")
	if err = viper.BindPFlag("file-system.file-mode", flagSet.Lookup("file-mode")); err != nil {
		return err
	}

	flagSet.IntP("dir-mode", "", 0755, "Permission bits presented for directories, in octal.")
	if err = viper.BindPFlag("file-system.dir-mode", flagSet.Lookup("dir-mode")); err != nil {
		return err
	}

	flagSet.IntP("uid", "", -1, "UID owner of all inodes; -1 uses the mounting user's own UID.")
	if err = viper.BindPFlag("file-system.uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.IntP("gid", "", -1, "GID owner of all inodes; -1 uses the mounting user's own GID.")
	if err = viper.BindPFlag("file-system.gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.StringP("server-url", "", "http://127.0.0.1:8080", "Base URL of the restfused server backing this mount.")
	if err = viper.BindPFlag("client.server-url", flagSet.Lookup("server-url")); err != nil {
		return err
	}

	flagSet.StringP("cache-strategy", "", string(CacheStrategyTTL), "Attribute cache eviction policy: ttl or lru.")
	if err = viper.BindPFlag("client.cache-strategy", flagSet.Lookup("cache-strategy")); err != nil {
		return err
	}

	flagSet.Uint64P("cache-ttl-seconds", "", 2, "Attribute cache entry lifetime, in seconds, under the ttl strategy.")
	if err = viper.BindPFlag("client.cache-ttl-seconds", flagSet.Lookup("cache-ttl-seconds")); err != nil {
		return err
	}

	flagSet.Uint64P("cache-lru-capacity", "", 1024, "Attribute cache entry count, under the lru strategy.")
	if err = viper.BindPFlag("client.cache-lru-capacity", flagSet.Lookup("cache-lru-capacity")); err != nil {
		return err
	}

	flagSet.Uint64P("request-timeout-secs", "", 30, "Timeout for a single HTTP request to the server.")
	if err = viper.BindPFlag("client.request-timeout-secs", flagSet.Lookup("request-timeout-secs")); err != nil {
		return err
	}

	return nil
}
