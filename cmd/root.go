package cmd

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/ezenkico/meet-commander/services/config"
	"github.com/ezenkico/meet-commander/services/logging"
)

// version is stamped at build time with -ldflags "-X ...cmd.version=...".
var version = "dev"

var (
	envFiles     []string
	logLevel     string
	logDev       bool
	networkName  string
	configRoot   string
	stackVersion string

	rootCmd = &cobra.Command{
		Use:           "meet-commander",
		Short:         "Run a Jitsi Meet stack on a single Docker host",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runStack,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVar(&envFiles, "env-file", nil, "dotenv file to load before reading the environment (repeatable)")
	pf.StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default $LOG_LEVEL or info)")
	pf.BoolVar(&logDev, "log-dev", false, "Human readable console logs")
	pf.StringVar(&networkName, "network", "", "Bridge network name (overrides $"+config.EnvNetworkName+")")
	pf.StringVar(&configRoot, "config-root", "", "Config root directory (overrides $"+config.EnvConfigRootDir+")")
	pf.StringVar(&stackVersion, "stack-version", "", "Image tag (overrides $"+config.EnvStackVersion+")")

	addRunFlags(rootCmd)
}

// setup loads env files and returns the logger and the environment lookup
// with flag overrides applied.
func setup() (logr.Logger, func(), config.Lookup, error) {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return logr.Discard(), func() {}, nil, err
	}

	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	log, flush, err := logging.New(logging.Options{Level: level, Development: logDev})
	if err != nil {
		return logr.Discard(), func() {}, nil, err
	}

	lookup := config.Overlay(os.LookupEnv, map[string]string{
		config.EnvNetworkName:   networkName,
		config.EnvConfigRootDir: configRoot,
		config.EnvStackVersion:  stackVersion,
	})
	return log, flush, lookup, nil
}
