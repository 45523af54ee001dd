package cmd

import (
	"io"

	"github.com/picogrid/geoscape-sim/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	profileName string
	gelfAddr    string
	logLevel    string
	noColor     bool

	gelfCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "geoscape-sim",
	Short: "Geoscape air combat simulation CLI",
	Long: `Geoscape Simulation CLI runs air war scenarios on a spherical globe:
interceptors and base defences against UFOs, with radar detection,
pursuit, saved games and after action reports.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if gelfCloser != nil {
			_ = gelfCloser.Close()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.geoscape-sim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "storage profile to use")
	rootCmd.PersistentFlags().StringVar(&gelfAddr, "gelf-addr", "", "ship logs to a Graylog GELF UDP input (host:port)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	_ = viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("gelf_addr", rootCmd.PersistentFlags().Lookup("gelf-addr"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(savesCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		viper.AddConfigPath("$HOME/.geoscape-sim")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GEOSCAPE")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	_ = viper.ReadInConfig()

	// Flags win over the config file through the bindings above
	logger.SetLevel(logger.ParseLevel(viper.GetString("log_level")))
	logger.SetNoColor(viper.GetBool("no_color"))

	if addr := viper.GetString("gelf_addr"); addr != "" {
		closer, err := logger.MirrorToGELF(addr)
		if err != nil {
			logger.Warnf("Log shipping disabled: %v", err)
			return
		}
		gelfCloser = closer
	}
}
