// Configuration sources, highest priority first:
//
//  1. Command-line flags (--port, --vault-url, ...)
//  2. Environment variables (TEXTVAULT_SERVER_PORT, TEXTVAULT_VAULT_TOKEN, ...)
//  3. A .env file in the working directory
//  4. The configuration file: --config, else TEXTVAULT_CONFIG_FILE, else
//     .textvault.yml in the working directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "textvault",
	Short: "Compose and submit pastes to TextVault",
	Long: `textvault runs the TextVault paste composer: a page with a title field,
a language selector and a code editor, backed by a server that builds the
{title, language, content} payload and hands it to the TextVault backend.

Quick Start:
  textvault serve                       Start the composer
  textvault compose --file main.go      Submit a file
  textvault languages                   List the supported languages`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is .textvault.yml, can also use TEXTVAULT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file and the environment.
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TEXTVAULT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".textvault")
	}

	viper.SetEnvPrefix("TEXTVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
