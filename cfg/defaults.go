package cfg

// GetDefaultLoggingConfig returns the logging configuration used during
// application startup, before a parsed Config is available.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity:        InfoLogSeverity,
		Format:          "text",
		MaxFileSizeMB:   512,
		BackupFileCount: 10,
		Compress:        true,
	}
}
