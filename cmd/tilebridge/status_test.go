// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

// serverPort extracts the port a httptest server is listening on.
func serverPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	_, portStr, err := net.SplitHostPort(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return port
}

func TestProbePortReportsTileServer(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}))
	t.Cleanup(ts.Close)

	line := probePort("127.0.0.1", serverPort(t, ts))
	if !strings.Contains(line, "✓") {
		t.Errorf("expected live marker: %q", line)
	}
	if !strings.Contains(line, "allows origin") {
		t.Errorf("expected CORS report: %q", line)
	}
}

func TestProbePortReportsPlainHTTPServer(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(ts.Close)

	line := probePort("127.0.0.1", serverPort(t, ts))
	if !strings.Contains(line, "no CORS headers") {
		t.Errorf("expected plain-HTTP report: %q", line)
	}
}

func TestProbePortReportsClosedPort(t *testing.T) {
	t.Parallel()

	// Bind and immediately close to get a port nothing listens on.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close() //nolint:errcheck // freeing the port is the point

	line := probePort("127.0.0.1", port)
	if !strings.Contains(line, "nothing listening") {
		t.Errorf("expected closed-port report: %q", line)
	}
}

func TestRunStatusRejectsBadPort(t *testing.T) {
	if err := runStatus(statusCmd, []string{"not-a-port"}); err == nil {
		t.Error("expected error for invalid port argument")
	}
	if err := runStatus(statusCmd, []string{"70000"}); err == nil {
		t.Error("expected error for out-of-range port")
	}
}
