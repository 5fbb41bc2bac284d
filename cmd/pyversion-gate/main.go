// Command pyversion-gate checks the Python version a pyo3 build targets and
// stops the build when it is too old for the ChromaDB Rust bindings.
//
// Call it from build.rs or a CI step:
//
//	pyversion-gate check
//	pyversion-gate check --format text --env-file build.env
//	pyversion-gate probe --server-url http://localhost:8000
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
