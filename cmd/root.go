/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/config"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// appConfig is loaded before every command runs.
	appConfig config.AppConfig
	// version is the application version.
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anticipate",
	Short: "Anticipate what needs your attention before you ask.",
	Long: `anticipate reads a snapshot of your tasks, calendar, email, deals and
portfolio, runs a set of detectors over it, and keeps a prioritized list of
signals: deadlines, stale work, conflicts, risks and patterns.

Dismissing or acting on signals tunes how similar signals are ranked.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		PrintError(userMessage(err), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.anticipate/.anticipate.yaml or $HOME/.anticipate.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default ./.anticipate or the user data dir)")
	rootCmd.PersistentFlags().StringP("snapshot", "s", "", "snapshot file (json, yaml or toml)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("snapshot.path", rootCmd.PersistentFlags().Lookup("snapshot"))
}

// setup loads configuration and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	if isVerbose() {
		cfg.Logging.Level = "debug"
	}
	if _, err := logger.New(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	logger.SetBasePath(cfg.Data.Dir)
	logger.SetVersion(version)
	logger.SetCommand(cmd.CommandPath())

	appConfig = cfg
	return nil
}
