// Command restfused serves a single directory over the REST API this
// project's clients mount.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/restfuse-project/restfuse/cfg"
	"github.com/restfuse-project/restfuse/internal/logger"
	"github.com/restfuse-project/restfuse/internal/pathutil"
	"github.com/restfuse-project/restfuse/internal/server"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	serverConfig  cfg.ServerConfig
)

var rootCmd = &cobra.Command{
	Use:   "restfused [flags]",
	Short: "Serve a directory over HTTP for restfuse clients to mount",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if err := viper.Unmarshal(&serverConfig, viper.DecodeHook(cfg.DecodeHook())); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
		if err := cfg.ValidateServerConfig(&serverConfig); err != nil {
			return err
		}

		if serverConfig.Logging.FilePath != "" {
			if err := logger.InitLogFile(serverConfig.Logging); err != nil {
				return fmt.Errorf("initializing log file: %w", err)
			}
		}

		s, err := server.New(string(serverConfig.Root), serverConfig.Addr)
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- s.ListenAndServe() }()

		select {
		case <-ctx.Done():
			logger.Infof("restfused: received shutdown signal, stopping")
			return s.Shutdown(context.Background())
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to a YAML config file")
	bindErr = cfg.BindServerFlags(rootCmd.PersistentFlags())
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

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
