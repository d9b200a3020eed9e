package cfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/restfuse-project/restfuse/internal/pathutil"
)

// Octal is the datatype for parameters such as file-mode and dir-mode that
// accept a base-8 value.
type Octal int

func (o *Octal) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text), 8, 32)
	if err != nil {
		return err
	}
	*o = Octal(v)
	return nil
}

func (o Octal) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(o), 8)), nil
}

func (o Octal) String() string {
	return fmt.Sprintf("%o", int64(o))
}

// LogSeverity represents the logging severity and can accept the following
// values: "TRACE", "DEBUG", "INFO", "WARNING", "ERROR", "OFF".
type LogSeverity string

const (
	TraceLogSeverity   LogSeverity = "TRACE"
	DebugLogSeverity   LogSeverity = "DEBUG"
	InfoLogSeverity    LogSeverity = "INFO"
	WarningLogSeverity LogSeverity = "WARNING"
	ErrorLogSeverity   LogSeverity = "ERROR"
	OffLogSeverity     LogSeverity = "OFF"
)

var severityRanking = map[LogSeverity]int{
	TraceLogSeverity:   0,
	DebugLogSeverity:   1,
	InfoLogSeverity:    2,
	WarningLogSeverity: 3,
	ErrorLogSeverity:   4,
	OffLogSeverity:     5,
}

func (l *LogSeverity) UnmarshalText(text []byte) error {
	level := LogSeverity(strings.ToUpper(string(text)))
	if _, ok := severityRanking[level]; !ok {
		return fmt.Errorf("invalid log severity level: %s. Must be one of [TRACE, DEBUG, INFO, WARNING, ERROR, OFF]", text)
	}
	*l = level
	return nil
}

// Rank returns the integer representation of the severity rank. Returns -1
// if the severity is unknown.
func (l LogSeverity) Rank() int {
	if rank, ok := severityRanking[l]; ok {
		return rank
	}
	return -1
}

// CacheStrategy selects the attribute-cache eviction policy: "ttl" expires
// entries after a fixed duration, "lru" bounds the cache to a fixed entry
// count and evicts the least recently used.
type CacheStrategy string

const (
	CacheStrategyTTL CacheStrategy = "ttl"
	CacheStrategyLRU CacheStrategy = "lru"
)

func (c *CacheStrategy) UnmarshalText(text []byte) error {
	strategy := CacheStrategy(strings.ToLower(string(text)))
	if strategy != CacheStrategyTTL && strategy != CacheStrategyLRU {
		return fmt.Errorf("invalid cache strategy: %s. Must be one of [ttl, lru]", text)
	}
	*c = strategy
	return nil
}

// ResolvedPath represents a file path that has been made absolute, resolved
// relative to the daemonized process's original working directory.
type ResolvedPath string

func (p *ResolvedPath) UnmarshalText(text []byte) error {
	path, err := pathutil.GetResolvedPath(string(text))
	if err != nil {
		return err
	}
	*p = ResolvedPath(path)
	return nil
}
