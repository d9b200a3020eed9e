// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the leveled, structured logger shared by the
// restfuse client and server binaries. It layers a small severity scheme
// (TRACE below slog's Debug, OFF above Error) on top of log/slog, and writes
// through an AsyncLogger so a rotating log file never blocks a request or a
// VFS op on disk I/O.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/restfuse-project/restfuse/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Severity strings accepted in config files, flags, and InitLogFile.
const (
	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

// Custom slog levels. Trace sits below slog's Debug and Off sits above
// Error, so a programLevel set to LevelOff suppresses every call here.
const (
	LevelTrace slog.Level = -8
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
	LevelOff   slog.Level = 12
)

const textTimeLayout = "2006/01/02 15:04:05.000000"

const asyncBufferSize = 256

type loggerFactory struct {
	file      *os.File
	sysWriter io.Writer

	level  string
	format string

	logRotateConfig cfg.LogRotateConfig
}

var (
	defaultLoggerFactory = &loggerFactory{
		level:           INFO,
		format:          "text",
		logRotateConfig: cfg.DefaultLogRotateConfig(),
	}
	defaultLogger = slog.New(
		defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, newLevelVar(INFO), ""))

	asyncWriter *AsyncLogger
)

func newLevelVar(level string) *slog.LevelVar {
	v := new(slog.LevelVar)
	setLoggingLevel(level, v)
	return v
}

// setLoggingLevel maps a severity string onto the slog level that gates it.
// Unrecognized strings leave programLevel untouched.
func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	case TRACE:
		programLevel.Set(LevelTrace)
	case DEBUG:
		programLevel.Set(LevelDebug)
	case INFO:
		programLevel.Set(LevelInfo)
	case WARNING:
		programLevel.Set(LevelWarn)
	case ERROR:
		programLevel.Set(LevelError)
	case OFF:
		programLevel.Set(LevelOff)
	}
}

func severityName(level slog.Level) string {
	switch {
	case level < LevelDebug:
		return TRACE
	case level < LevelInfo:
		return DEBUG
	case level < LevelWarn:
		return INFO
	case level < LevelError:
		return WARNING
	default:
		return ERROR
	}
}

// severityHandler renders one line per record, in the text or JSON shape
// restfuse has always used, rather than slog's default key=value dump.
type severityHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  *slog.LevelVar
	format string
	prefix string
}

func (h *severityHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

type jsonTimestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int   `json:"nanos"`
}

type jsonEntry struct {
	Timestamp jsonTimestamp `json:"timestamp"`
	Severity  string        `json:"severity"`
	Message   string        `json:"message"`
}

func (h *severityHandler) Handle(_ context.Context, r slog.Record) error {
	sev := severityName(r.Level)
	msg := h.prefix + r.Message

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.format == "text" {
		line := fmt.Sprintf("time=%q severity=%s message=%q\n", r.Time.Format(textTimeLayout), sev, msg)
		_, err := io.WriteString(h.out, line)
		return err
	}

	entry := jsonEntry{
		Timestamp: jsonTimestamp{Seconds: r.Time.Unix(), Nanos: r.Time.Nanosecond()},
		Severity:  sev,
		Message:   msg,
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = h.out.Write(b)
	return err
}

func (h *severityHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *severityHandler) WithGroup(_ string) slog.Handler      { return h }

// createJsonOrTextHandler builds the handler used by the default logger.
// Any format other than "text" (including the empty string) renders JSON.
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	format := "json"
	if f.format == "text" {
		format = "text"
	}
	return &severityHandler{mu: &sync.Mutex{}, out: w, level: programLevel, format: format, prefix: prefix}
}

// InitLogFile redirects the default logger to the file named by c, wrapping
// it in a lumberjack rotator and an AsyncLogger so writes never block a
// caller on disk I/O.
func InitLogFile(c cfg.LoggingConfig) error {
	f, err := os.OpenFile(string(c.FilePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("InitLogFile: open %s: %w", c.FilePath, err)
	}

	rotate := cfg.LogRotateConfig{
		MaxFileSizeMB:   c.MaxFileSizeMB,
		BackupFileCount: c.BackupFileCount,
		Compress:        c.Compress,
	}
	lj := &lumberjack.Logger{
		Filename:   string(c.FilePath),
		MaxSize:    rotate.MaxFileSizeMB,
		MaxBackups: rotate.BackupFileCount,
		Compress:   rotate.Compress,
	}

	if asyncWriter != nil {
		_ = asyncWriter.Close()
	}
	aw := NewAsyncLogger(lj, asyncBufferSize)
	asyncWriter = aw

	defaultLoggerFactory = &loggerFactory{
		file:            f,
		level:           string(c.Severity),
		format:          c.Format,
		logRotateConfig: rotate,
	}
	defaultLogger = slog.New(
		defaultLoggerFactory.createJsonOrTextHandler(aw, newLevelVar(defaultLoggerFactory.level), ""))

	return nil
}

// SetLogFormat switches the default logger between "text" and JSON output
// without otherwise disturbing its destination or severity.
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format

	var out io.Writer = os.Stderr
	if asyncWriter != nil {
		out = asyncWriter
	}

	defaultLogger = slog.New(
		defaultLoggerFactory.createJsonOrTextHandler(out, newLevelVar(defaultLoggerFactory.level), ""))
}

func Tracef(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelDebug, fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelInfo, fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelWarn, fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelError, fmt.Sprintf(format, v...))
}

// Close flushes and releases any file-backed writer installed by
// InitLogFile. Safe to call even if InitLogFile was never called.
func Close() error {
	if asyncWriter == nil {
		return nil
	}
	err := asyncWriter.Close()
	asyncWriter = nil
	return err
}
