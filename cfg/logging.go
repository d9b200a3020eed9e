// Copyright 2024 Google LLC
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

package cfg

// LoggingConfig controls where and how both binaries write log lines.
type LoggingConfig struct {
	Severity LogSeverity  `yaml:"severity"`
	Format   string       `yaml:"format"`
	FilePath ResolvedPath `yaml:"file-path"`

	MaxFileSizeMB   int  `yaml:"max-file-size-mb"`
	BackupFileCount int  `yaml:"backup-file-count"`
	Compress        bool `yaml:"compress"`
}

// LogRotateConfig is the subset of LoggingConfig that governs lumberjack
// rotation, kept separate so the logger package can hold it independent of
// the severity/format/path fields it does not otherwise need.
type LogRotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// DefaultLogRotateConfig returns the rotation settings used until a caller
// supplies a LoggingConfig via InitLogFile.
func DefaultLogRotateConfig() LogRotateConfig {
	return LogRotateConfig{
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        false,
	}
}
