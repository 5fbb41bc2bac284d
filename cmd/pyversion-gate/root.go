package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/getkawai/pyversion-gate/internal/config"
	"github.com/getkawai/pyversion-gate/internal/logging"
)

// exitError carries a process exit code out of a command. A nil err means the
// command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type app struct {
	v          *viper.Viper
	configPath string

	cfg    *config.Config
	logger *zap.Logger

	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintln(stderr, exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 2
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      config.NewViper(),
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:   "pyversion-gate",
		Short: "Build-time Python version gate for the ChromaDB Rust bindings",
		Long: `pyversion-gate reads the Python version pyo3 exports into the build
environment and warns about or rejects interpreters the bindings do not support.
Without a subcommand it runs "check".`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		RunE:              a.runCheck,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.logger.Sync() },
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("format", "cargo", "advisory format (cargo, text)")
	flags.String("env-file", "", "dotenv file with build variables; the process environment wins")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("format", flags.Lookup("format"))
	_ = a.v.BindPFlag("env_file", flags.Lookup("env-file"))

	root.AddCommand(
		a.newCheckCmd(),
		a.newProbeCmd(),
		newVersionCmd(stdout),
	)

	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	logger, err := logging.New(cfg.LogLevel, a.stderr)
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	a.cfg = cfg
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.logger.Debug("configuration loaded",
		zap.String("format", cfg.Format),
		zap.String("config_file", a.v.ConfigFileUsed()),
	)
	return nil
}
