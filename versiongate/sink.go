package versiongate

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Sink is the build-log channel advisories are written to.
type Sink interface {
	Warn(msg string) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(msg string) error

func (f SinkFunc) Warn(msg string) error { return f(msg) }

// CargoSink writes advisories as Cargo build-script warnings, which cargo
// surfaces to the user after the build script finishes.
func CargoSink(w io.Writer) Sink {
	return SinkFunc(func(msg string) error {
		_, err := fmt.Fprintf(w, "cargo:warning=%s\n", msg)
		return err
	})
}

// TextSink writes "warning: msg" lines, with a yellow prefix when colored is set.
func TextSink(w io.Writer, colored bool) Sink {
	prefix := color.New(color.FgYellow, color.Bold)
	if colored {
		prefix.EnableColor()
	} else {
		prefix.DisableColor()
	}
	return SinkFunc(func(msg string) error {
		_, err := fmt.Fprintf(w, "%s %s\n", prefix.Sprint("warning:"), msg)
		return err
	})
}

// LogSink emits each advisory as an info-level log entry.
func LogSink(logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return SinkFunc(func(msg string) error {
		logger.Info("build advisory", zap.String("advisory", msg))
		return nil
	})
}

// MultiSink writes every advisory to all sinks and joins their errors.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(msg string) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Warn(msg); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
