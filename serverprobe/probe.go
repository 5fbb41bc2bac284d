// Package serverprobe checks a running ChromaDB server from CI and reports
// whether the Python it runs on needs the pydantic-settings patch.
package serverprobe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkawai/pyversion-gate/versiongate"
)

const (
	heartbeatPath = "/api/v2/heartbeat"
	versionPath   = "/api/v2/version"
)

// Info describes the probed server.
type Info struct {
	PythonVersion string
	ChromaVersion string
	// Compatible is false when the server runs on Python 3.14 or newer.
	Compatible bool
}

// Client queries a ChromaDB server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil hc uses http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// NeedsSettingsPatch reports whether a server on pythonVersion needs the
// pydantic-settings patch. Versions that do not parse are assumed not to.
func NeedsSettingsPatch(pythonVersion string) bool {
	v, ok := versiongate.ParseVersion(pythonVersion)
	return ok && v.Major == 3 && v.Minor >= 14
}

// Probe confirms the server answers its heartbeat and fetches its version.
// The server does not expose its Python version, so the caller passes it in.
func (c *Client) Probe(ctx context.Context, pythonVersion string) (Info, error) {
	resp, err := c.get(ctx, heartbeatPath)
	if err != nil {
		return Info{}, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Info{}, fmt.Errorf("failed to reach ChromaDB server at %s: %d", c.baseURL, resp.StatusCode)
	}

	resp, err = c.get(ctx, versionPath)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return Info{}, fmt.Errorf("read server version: %w", err)
	}

	return Info{
		PythonVersion: pythonVersion,
		ChromaVersion: strings.TrimSpace(strings.ReplaceAll(string(body), `"`, "")),
		Compatible:    !NeedsSettingsPatch(pythonVersion),
	}, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return resp, nil
}
