package main

import (
	"encoding/json"
	"io"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	arena "github.com/pavanmanishd/stackarena"
	"github.com/pavanmanishd/stackarena/internal/backing"
)

const envPrefix = "ARENACTL"

// settings are read from ARENACTL_* variables and then overridden by any
// flag given on the command line.
type settings struct {
	Config   string `envconfig:"CONFIG"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"warning"`
	Backing  string `envconfig:"BACKING"`
}

type app struct {
	settings settings
	flags    settings
	jsonOut  bool
	log      *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	cmd := &cobra.Command{
		Use:   "arenactl",
		Short: "Exercise and inspect tagged-region stack arenas",
		Long: `arenactl initializes an arena registry from a region layout, runs
allocation workloads against it and reports region usage.

The layout comes from --config (or ARENACTL_CONFIG). Without one the
built-in DumpTest (1KiB) and RecursiveTest (256KiB) regions are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.flags.Config, "config", "c", "", "YAML region layout")
	flags.StringVar(&a.flags.Backing, "backing", "", "Backing buffer kind (heap or mmap)")
	flags.StringVar(&a.flags.LogLevel, "log-level", "", "Log level (debug, info, warning, error)")
	flags.BoolVar(&a.jsonOut, "json", false, "Output in JSON format")

	cmd.AddCommand(newDumpCmd(a), newRecurseCmd(a), newStatsCmd(a))
	return cmd
}

// setup resolves settings and configures logging before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	if err := envconfig.Process(envPrefix, &a.settings); err != nil {
		return errors.Wrap(err, "read environment")
	}
	if cmd.Flags().Changed("config") {
		a.settings.Config = a.flags.Config
	}
	if cmd.Flags().Changed("backing") {
		a.settings.Backing = a.flags.Backing
	}
	if cmd.Flags().Changed("log-level") {
		a.settings.LogLevel = a.flags.LogLevel
	}

	level, err := logrus.ParseLevel(a.settings.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	a.log.SetLevel(level)
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return nil
}

// loadConfig returns the region layout after applying the backing
// override.
func (a *app) loadConfig() (arena.Config, error) {
	cfg := arena.DefaultConfig()
	if path := a.settings.Config; path != "" {
		var err error
		if cfg, err = arena.LoadConfig(path); err != nil {
			return arena.Config{}, err
		}
	}
	if a.settings.Backing != "" {
		kind, err := backing.ParseKind(a.settings.Backing)
		if err != nil {
			return arena.Config{}, err
		}
		cfg.Backing = kind
	}
	return cfg, nil
}

// withRegistry initializes a registry for the duration of fn. A registry
// that cannot obtain its backing buffer is fatal.
func (a *app) withRegistry(fn func(*arena.Registry) error) (err error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	reg := arena.NewRegistry(cfg, arena.WithLogger(logrus.NewEntry(a.log)))
	if err := reg.Init(); err != nil {
		a.log.WithError(err).Fatal("cannot initialize arena registry")
	}
	defer func() {
		if derr := reg.Deinit(); err == nil {
			err = derr
		}
	}()
	return fn(reg)
}

func lookup(reg *arena.Registry, name string) (arena.Tag, error) {
	tag, ok := reg.Lookup(name)
	if !ok {
		return 0, errors.Errorf("no arena named %q", name)
	}
	return tag, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
