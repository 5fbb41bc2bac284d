package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getkawai/pyversion-gate/versiongate"
)

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the target Python version",
		Long: `Reads PYO3_PYTHON_VERSION (and PYO3_GIL_DISABLED), prints advisories and
exits with status 1 when the interpreter is older than the supported minimum.`,
		Args: cobra.NoArgs,
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(_ *cobra.Command, _ []string) error {
	lookup := versiongate.LookupFunc(os.LookupEnv)
	if a.cfg.EnvFile != "" {
		l, err := versiongate.DotenvLookup(a.cfg.EnvFile)
		if err != nil {
			return &exitError{code: 2, err: err}
		}
		lookup = l
	}

	gate, err := versiongate.New(a.cfg.Gate, lookup, versiongate.WithLogger(a.logger))
	if err != nil {
		return &exitError{code: 2, err: fmt.Errorf("invalid gate rules: %w", err)}
	}

	err = gate.Check(a.advisorySink())

	var tooOld *versiongate.TooOldError
	if errors.As(err, &tooOld) {
		return &exitError{code: 1, err: tooOld}
	}
	if err != nil {
		a.logger.Warn("advisory output failed", zap.Error(err))
	}
	return nil
}

func (a *app) advisorySink() versiongate.Sink {
	var out versiongate.Sink
	switch a.cfg.Format {
	case "text":
		out = versiongate.TextSink(a.stdout, !color.NoColor)
	default:
		out = versiongate.CargoSink(a.stdout)
	}
	return versiongate.MultiSink(out, versiongate.LogSink(a.logger))
}
