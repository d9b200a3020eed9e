// Package cmd implements restfuse's command-line surface: parsing flags and
// an optional config file into a cfg.Config, then mounting.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/restfuse-project/restfuse/cfg"
	"github.com/restfuse-project/restfuse/internal/pathutil"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	MountConfig   cfg.Config
)

// usageError marks an error that should exit with status 2 (invalid
// arguments) rather than 1 (mount failure).
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "restfuse [flags] mountpoint",
	Short: "Mount a remote directory served by restfused as a local file system",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageError{fmt.Errorf("%s takes exactly one argument: the mount point", cmd.Name())}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return usageError{bindErr}
		}
		if configFileErr != nil {
			return usageError{configFileErr}
		}
		if err := viper.Unmarshal(&MountConfig, viper.DecodeHook(cfg.DecodeHook())); err != nil {
			return usageError{fmt.Errorf("parsing config: %w", err)}
		}
		if err := cfg.ValidateConfig(&MountConfig); err != nil {
			return usageError{err}
		}

		mountPoint, err := pathutil.GetResolvedPath(args[0])
		if err != nil {
			return usageError{fmt.Errorf("canonicalizing mount point: %w", err)}
		}

		mfs, err := mountWithConfig(cmd.Context(), mountPoint, &MountConfig)
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}

		return mfs.Join(cmd.Context())
	},
}

// Execute runs the command, exiting the process with the code described by
// the external CLI contract: 0 on a clean exit, 1 on mount failure, 2 on
// invalid arguments.
func Execute() {
	rootCmd.SilenceUsage = true
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var uerr usageError
		if errors.As(err, &uerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		return
	}
	resolved, err := pathutil.GetResolvedPath(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(resolved)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
	}
}
