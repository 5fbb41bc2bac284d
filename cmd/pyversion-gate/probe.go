package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/getkawai/pyversion-gate/serverprobe"
)

func (a *app) newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check a running ChromaDB server before client integration tests",
		Long: `Confirms the ChromaDB server answers and reports whether the Python it runs
on (CHROMA_SERVER_PYTHON_VERSION) needs the pydantic-settings patch.
The JS/TS client is not affected either way, so a reachable server exits 0.`,
		Args: cobra.NoArgs,
		RunE: a.runProbe,
	}

	cmd.Flags().String("server-url", "", "ChromaDB server base URL (default $CHROMA_SERVER_URL or http://localhost:8000)")
	cmd.Flags().String("python-version", "", "Python version of the server (default $CHROMA_SERVER_PYTHON_VERSION)")
	cmd.Flags().Duration("timeout", 0, "HTTP timeout per request")
	_ = a.v.BindPFlag("probe.server_url", cmd.Flags().Lookup("server-url"))
	_ = a.v.BindPFlag("probe.python_version", cmd.Flags().Lookup("python-version"))
	_ = a.v.BindPFlag("probe.timeout", cmd.Flags().Lookup("timeout"))

	return cmd
}

func (a *app) runProbe(cmd *cobra.Command, _ []string) error {
	p := a.cfg.Probe
	client := serverprobe.New(p.ServerURL, &http.Client{Timeout: p.Timeout})

	info, err := client.Probe(cmd.Context(), p.PythonVersion)
	if err != nil {
		a.logger.Debug("probe failed", zap.String("server_url", p.ServerURL), zap.Error(err))
		fmt.Fprintf(a.stderr, "Server check failed: %v\n", err)
		return &exitError{code: 1}
	}

	fmt.Fprintf(a.stdout, "ChromaDB server version: %s\n", info.ChromaVersion)
	fmt.Fprintf(a.stdout, "Python version: %s\n", info.PythonVersion)
	if !info.Compatible {
		fmt.Fprintln(a.stdout, "WARNING: Server running on Python 3.14+. Ensure the pydantic-settings patch is applied.")
	}
	fmt.Fprintln(a.stdout, "JS/TS client is compatible regardless of server Python version.")
	return nil
}
