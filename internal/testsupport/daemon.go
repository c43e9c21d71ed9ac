package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeDaemonOptions shape the generated casd stand-in script.
type FakeDaemonOptions struct {
	// APIAddr is announced by the daemon subcommand. Required.
	APIAddr string
	// GatewayAddr, when set, is announced before the ready marker.
	GatewayAddr string
	// IgnoreTerm makes the daemon ignore SIGTERM so only SIGKILL stops it.
	IgnoreTerm bool
	// FailDaemon makes the daemon subcommand exit 1 before announcing
	// anything useful.
	FailDaemon bool
	// WriteAddrFiles makes the daemon write api/gateway files into the repo,
	// the way a real daemon advertises itself for attachment.
	WriteAddrFiles bool
}

// WriteFakeDaemon writes a shell script that behaves like a minimal casd
// binary: init creates the repo marker, version prints a version string, and
// daemon announces readiness markers then waits for a signal. It returns the
// script path for use as the controller's exec path.
func WriteFakeDaemon(t testing.TB, opts FakeDaemonOptions) string {
	t.Helper()
	if opts.APIAddr == "" {
		t.Fatal("fake daemon requires an API address")
	}

	var daemonBody strings.Builder
	if opts.FailDaemon {
		daemonBody.WriteString("    echo \"booting\"\n")
		daemonBody.WriteString("    echo \"fatal: cannot open datastore\" >&2\n")
		daemonBody.WriteString("    exit 1 ;;\n")
	} else {
		if opts.WriteAddrFiles {
			fmt.Fprintf(&daemonBody, "    printf '%%s' %q > \"$CASD_PATH/api\"\n", opts.APIAddr)
			if opts.GatewayAddr != "" {
				fmt.Fprintf(&daemonBody, "    printf '%%s' %q > \"$CASD_PATH/gateway\"\n", opts.GatewayAddr)
			}
		}
		fmt.Fprintf(&daemonBody, "    echo \"API server listening on %s\"\n", opts.APIAddr)
		if opts.GatewayAddr != "" {
			fmt.Fprintf(&daemonBody, "    echo \"Gateway server listening on %s\"\n", opts.GatewayAddr)
		}
		daemonBody.WriteString("    echo \"Daemon is ready\"\n")
		if opts.IgnoreTerm {
			daemonBody.WriteString("    trap '' TERM\n")
		} else {
			daemonBody.WriteString("    trap 'exit 0' TERM\n")
		}
		daemonBody.WriteString("    while true; do sleep 0.1; done ;;\n")
	}

	script := fmt.Sprintf(`#!/bin/sh
case "$1" in
  init)
    mkdir -p "$CASD_PATH"
    echo '{}' > "$CASD_PATH/config" ;;
  version)
    echo "casd version 0.9.1-fake" ;;
  config)
    echo '{}' ;;
  daemon)
%s
esac
`, daemonBody.String())

	path := filepath.Join(t.TempDir(), "casd")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake daemon: %v", err)
	}
	return path
}

// StartFakeAPI runs an HTTP server answering the daemon API calls the client
// makes, and returns the multiaddr form of its listen address.
func StartFakeAPI(t testing.TB) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0/id", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ID":           "QmFakeDaemon",
			"AgentVersion": "casd/0.9.1-fake",
			"Addresses":    []string{},
		})
	})
	mux.HandleFunc("/api/v0/shutdown", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hostPort := strings.TrimPrefix(srv.URL, "http://")
	host, port, ok := strings.Cut(hostPort, ":")
	if !ok {
		t.Fatalf("unexpected test server URL %q", srv.URL)
	}
	return fmt.Sprintf("/ip4/%s/tcp/%s", host, port)
}
