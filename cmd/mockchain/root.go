package mockchain

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/mockchain/internal/config"
)

// NewRootCmd builds the mockchain command tree around its own viper instance.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "mockchain",
		Short:         "Simulate an email-verification contract on a mock chain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read config file: %w", err)
				}
			}

			level, err := parseLogLevel(v.GetString("logLevel"))
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringP("logLevel", "l", "info", "Log level (debug|info|warn|error)")
	mustBindPFlags(v, rootCmd)

	rootCmd.AddCommand(newSimulateCmd(v), newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func mustBindPFlags(v *viper.Viper, cmd *cobra.Command) {
	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(fmt.Sprintf("failed to bind persistent flags: %v", err))
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}
}
