// Command walletcli runs wallet operations on JSON documents and builds the
// decryption table artifact.
package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/takakv/msc-wallet/wallet"
	"go.uber.org/zap"
)

const envPrefix = "WALLET"

type cli struct {
	v          *viper.Viper
	configFile string
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()
	c.v.SetDefault("table.size", wallet.DefaultTableSize)
	c.v.SetDefault("log.level", "info")

	root := &cobra.Command{
		Use:           "walletcli",
		Short:         "Run shielded wallet operations.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.readConfig()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, json or toml)")
	flags.String("table", "", "path of a decryption table written by gentable")
	flags.String("log-level", "", "log level")
	_ = c.v.BindPFlag("table.path", flags.Lookup("table"))
	_ = c.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(c.callCommand(), c.gentableCommand(), c.operationsCommand())
	return root
}

func (c *cli) readConfig() error {
	if c.configFile == "" {
		return nil
	}
	c.v.SetConfigFile(c.configFile)
	if err := c.v.ReadInConfig(); err != nil {
		return errors.WithMessage(err, "error when reading config file")
	}
	return nil
}

func (c *cli) config() (wallet.Config, error) {
	var cfg wallet.Config
	if err := c.v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	return cfg.Build()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
