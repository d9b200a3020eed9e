package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ServerConfig is the server binary's configuration: which directory it
// exposes and where it listens.
type ServerConfig struct {
	Logging LoggingConfig `yaml:"logging"`

	Root ResolvedPath `yaml:"root"`
	Addr string       `yaml:"addr"`
}

// BindServerFlags registers the server binary's flags on flagSet and binds
// them into viper so a parsed ServerConfig reflects either flag or
// config-file values.
func BindServerFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("root", "", "", "Directory this server exposes over HTTP.")
	if err = viper.BindPFlag("root", flagSet.Lookup("root")); err != nil {
		return err
	}

	flagSet.StringP("addr", "", "127.0.0.1:8080", "Address to listen on.")
	if err = viper.BindPFlag("addr", flagSet.Lookup("addr")); err != nil {
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

	return nil
}
