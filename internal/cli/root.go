// Package cli implements the retrofox command line: offline WAV
// processing through the effect chain and processors, synth rendering,
// file analysis and playback.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RETROFOX"

// app is the state shared by every subcommand.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
	out io.Writer
}

// NewRootCmd builds the retrofox command tree. Every call returns an
// independent tree with its own viper instance and logger.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: logrus.New()}

	var presetFile string

	root := &cobra.Command{
		Use:   "retrofox",
		Short: "Lo-fi effects, GRU amp models and a subtractive synth for WAV files",
		Long: `retrofox runs audio files through the RetroFoX lo-fi processor, GRU
amp models, configurable effect chains and a monophonic synthesizer.

Settings come from a YAML preset (--preset), RETROFOX_* environment
variables and command flags, in increasing order of precedence.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			a.log.SetOutput(cmd.ErrOrStderr())

			return a.init(presetFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&presetFile, "preset", "p", "", "YAML preset file")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.Int("block-size", defaultBlockSize, "processing block size in frames")

	a.bind("log.level", pf.Lookup("log-level"))
	a.bind("log.format", pf.Lookup("log-format"))
	a.bind("blockSize", pf.Lookup("block-size"))

	root.AddCommand(
		newFxCmd(a),
		newAmpCmd(a),
		newCrushCmd(a),
		newSynthCmd(a),
		newInfoCmd(a),
		newPlayCmd(a),
	)

	return root
}

func (a *app) init(presetFile string) error {
	a.v.SetDefault("log.level", "info")
	a.v.SetDefault("log.format", "text")
	a.v.SetDefault("blockSize", defaultBlockSize)

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if presetFile != "" {
		a.v.SetConfigFile(presetFile)
		a.v.SetConfigType("yaml")

		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read preset: %w", err)
		}
	}

	level, err := logrus.ParseLevel(a.v.GetString("log.level"))
	if err != nil {
		return err
	}

	a.log.SetLevel(level)

	if a.v.GetString("log.format") == "json" {
		a.log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if presetFile != "" {
		a.log.WithField("preset", a.v.ConfigFileUsed()).Debug("preset loaded")
	}

	return nil
}

// bind ties a viper key to a flag. Keys are fixed at build time, so a
// failure is a programming error.
func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("cli: bind %s: %v", key, err))
	}
}
