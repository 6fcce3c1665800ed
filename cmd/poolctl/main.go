// Command poolctl drives the pooling engine with a synthetic workload and
// inspects saved pool state.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AlexsanderHamir/gwizpool/internal/config"
	"github.com/AlexsanderHamir/gwizpool/internal/logger"
)

var version = "0.1.0"

type rootOptions struct {
	configFile string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "poolctl - object pooling workbench",
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poolctl v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List the built-in pool presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.PresetNames() {
				cfg, err := config.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s min=%d max=%d initial=%d priority=%d\n",
					name, cfg.MinSize, cfg.MaxSize, cfg.InitialSize, cfg.Priority)
			}
			return nil
		},
	})

	root.AddCommand(newSimulateCmd(opts))
	root.AddCommand(newStateCmd())

	return root
}

// load reads the configuration file when one was given and builds the
// logger from it.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return cfg, nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}
