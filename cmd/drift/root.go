package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "drift",
	Short: "Snapshot dashboard configuration and detect drift against saved baselines",
	Long: `drift stores point-in-time baselines of dashboard-managed configuration
(administrators, SSIDs, switch ports, settings) as timestamped JSON files
and compares live state against them, reporting what was added, removed,
or changed per entity.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug output")
	rootCmd.PersistentFlags().String("api-key", "", "dashboard API key")
	rootCmd.PersistentFlags().String("base-url", "", "dashboard API base URL")
	rootCmd.PersistentFlags().String("org", "", "organization id to operate on")

	viper.SetEnvPrefix("drift")
	viper.AutomaticEnv()
	viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("org", rootCmd.PersistentFlags().Lookup("org"))
	viper.SetDefault("base_url", "https://api.meraki.com/api/v1")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "drift: %s\n", err)
		os.Exit(1)
	}
}
