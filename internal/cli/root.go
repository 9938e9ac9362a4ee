package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xdrpull/xdrpull/internal/pkg/logger"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	log       *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xdrpull",
	Short: "xdrpull - pull Cortex XDR alerts into S3",
	Long: `xdrpull retrieves security alerts from a Cortex XDR tenant over its
paginated HTTPS API and persists the accumulated result set to S3.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.Init(logger.Config{
			Level:  viper.GetString("log_level"),
			Format: viper.GetString("log_format"),
		})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.xdrpull/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: json, console")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		viper.AddConfigPath(home + "/.xdrpull")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("XDRPULL")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}
