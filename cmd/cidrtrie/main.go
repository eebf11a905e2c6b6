// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	envPrefix         = "CIDRTRIE"
	defaultConfigName = ".cidrtrie"
)

// cli holds the flag values shared by the sub-commands.
type cli struct {
	cfgFile    string
	logLevel   string
	file       string
	fileFormat string
	output     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:          "cidrtrie",
		Short:        "Query lists of CIDR prefixes held in a binary prefix trie",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.initConfig(cmd)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s.yaml)", defaultConfigName))
	flags.StringVar(&c.logLevel, "log-level", "error", "Log level: debug, info, warning, error")
	flags.StringVarP(&c.file, "file", "f", "", "prefix list to load")
	flags.StringVar(&c.fileFormat, "file-format", "", "prefix list format: text or yaml (default: from the file extension)")
	flags.StringVarP(&c.output, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(c.treeCmd(), c.lookupCmd(), c.rangeCmd())
	return rootCmd
}

// initConfig applies the config file and CIDRTRIE_ variables to the flags
// that were not set on the command line.
func (c *cli) initConfig(cmd *cobra.Command) error {
	v := viper.New()

	if c.cfgFile != "" {
		v.SetConfigFile(c.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(defaultConfigName)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cfgErr := v.ReadInConfig()

	if err := bindFlags(cmd, v); err != nil {
		return err
	}

	initLogger(c.logLevel)

	if cfgErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(cfgErr, &notFound) {
			return errors.Wrap(cfgErr, "reading config")
		}
		log.WithError(cfgErr).Debug("no config file")
	} else {
		log.WithField("config", v.ConfigFileUsed()).Debug("using config file")
	}
	return nil
}

func initLogger(logLevel string) {
	ll, err := log.ParseLevel(logLevel)
	if err != nil {
		ll = log.ErrorLevel
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true, PadLevelText: true, DisableQuote: true})
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) || bindErr != nil {
			return
		}
		val := v.Get(f.Name)
		switch val.(type) {
		case bool, uint, string, int32, int16, int8, int, uint32, uint64, int64, float64, float32:
			bindErr = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val))
		default:
			var jsonNew = jsoniter.ConfigCompatibleWithStandardLibrary
			b, err := jsonNew.Marshal(&val)
			if err != nil {
				bindErr = errors.Wrapf(err, "can't parse flag %s into json with value %v", f.Name, val)
				return
			}
			bindErr = cmd.Flags().Set(f.Name, string(b))
		}
		if bindErr != nil {
			bindErr = errors.Wrapf(bindErr, "applying %s from config", f.Name)
		}
	})
	return bindErr
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
