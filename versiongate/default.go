package versiongate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	outputMu       sync.RWMutex
	outputOverride io.Writer

	exitMu       sync.RWMutex
	exitOverride func(code int)
)

// SetOutput redirects CheckVersionCompatibility's advisories and fatal message.
// Nil restores stdout for advisories and stderr for the fatal message.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputOverride = w
}

func getOutputOverride() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return outputOverride
}

// SetExitFunc replaces os.Exit for CheckVersionCompatibility. Nil restores os.Exit.
func SetExitFunc(fn func(code int)) {
	exitMu.Lock()
	defer exitMu.Unlock()
	exitOverride = fn
}

func getExitFunc() func(code int) {
	exitMu.RLock()
	defer exitMu.RUnlock()
	if exitOverride == nil {
		return os.Exit
	}
	return exitOverride
}

// CheckVersionCompatibility runs the default gate against the process
// environment, prints advisories as Cargo warnings and exits with status 1
// when the interpreter is too old. Call it from a build step.
func CheckVersionCompatibility() {
	gate, err := New(DefaultRules(), os.LookupEnv)
	if err != nil {
		panic(err)
	}

	stdout, stderr := io.Writer(os.Stdout), io.Writer(os.Stderr)
	if w := getOutputOverride(); w != nil {
		stdout, stderr = w, w
	}

	// A failed advisory write does not change the verdict.
	err = gate.Check(CargoSink(stdout))

	var tooOld *TooOldError
	if errors.As(err, &tooOld) {
		fmt.Fprintln(stderr, tooOld.Error())
		getExitFunc()(1)
	}
}
