package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fdg312/insulin-calc/internal/i18n"
	"github.com/fdg312/insulin-calc/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dosecalc",
	Short: "Mealtime insulin dose calculator.",
	Long: `dosecalc derives ICR and ISF from your total daily dose and prints the
bolus, correction and total mealtime dose for a meal.

Defaults for --tdd, --target and --lang can be kept in ~/.dosecalc.yaml
or DOSECALC_* environment variables.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		logging.Setup(levelString, os.Stderr, false)
		return i18n.Validate()
	},
}

// Execute is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dosecalc.yaml)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "warn", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().Float64("tdd", 0, "Total daily dose of insulin, units")
	rootCmd.PersistentFlags().String("lang", "en", "Label language: en or th")

	_ = viper.BindPFlag("tdd", rootCmd.PersistentFlags().Lookup("tdd"))
	_ = viper.BindPFlag("lang", rootCmd.PersistentFlags().Lookup("lang"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			logging.Log.Warnf("config: cannot resolve home dir: %v", err)
		} else {
			viper.AddConfigPath(filepath.Clean(home))
		}
		viper.SetConfigName(".dosecalc")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("dosecalc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("target", 130)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logging.Log.Warnf("config: %v", err)
		}
		return
	}
	logging.Log.Debugf("config: using %s", viper.ConfigFileUsed())
}

func labels() i18n.Labels {
	return i18n.For(i18n.ParseLanguage(viper.GetString("lang")))
}
