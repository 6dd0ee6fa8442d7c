// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// statusProbeTimeout bounds each per-port probe so a wedged server cannot
// hang the command.
const statusProbeTimeout = 2 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status [port...]",
	Short: "Probe local tile servers for liveness",
	Long: `Probe local ports for a responding tile server.

Each port is checked with a TCP dial followed by an HTTP OPTIONS request,
the same preflight a browser map client sends. The report shows whether
something is listening and which CORS origin it allows. Without arguments
the configured default port is probed.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	ports := make([]int, 0, len(args))
	for _, arg := range args {
		port, err := strconv.Atoi(arg)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("status: %q is not a valid port", arg)
		}
		ports = append(ports, port)
	}
	if len(ports) == 0 {
		ports = append(ports, cfg.Serve.Port)
	}

	for _, port := range ports {
		fmt.Fprintln(cmd.OutOrStdout(), probePort(cfg.Serve.Host, port))
	}
	return nil
}

// probePort reports one port's liveness as a styled line.
func probePort(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", addr, statusProbeTimeout)
	if err != nil {
		return fmt.Sprintf("%s  %s", ErrorStyle.Render("✗ "+addr), SubtitleStyle.Render("nothing listening"))
	}
	conn.Close() //nolint:errcheck // probe connection, nothing to report

	client := &http.Client{Timeout: statusProbeTimeout}
	resp, err := client.Do(mustOptionsRequest("http://" + addr + "/"))
	if err != nil {
		return fmt.Sprintf("%s  %s", WarningStyle.Render("? "+addr), SubtitleStyle.Render("listening, but not speaking HTTP"))
	}
	defer resp.Body.Close() //nolint:errcheck // probe response, body unused

	origin := resp.Header.Get("Access-Control-Allow-Origin")
	if origin == "" {
		return fmt.Sprintf("%s  %s", SuccessStyle.Render("✓ "+addr), SubtitleStyle.Render("HTTP server, no CORS headers"))
	}
	return fmt.Sprintf("%s  %s", SuccessStyle.Render("✓ "+addr), SubtitleStyle.Render("tile server, allows origin ")+URLStyle.Render(origin))
}

func mustOptionsRequest(url string) *http.Request {
	req, err := http.NewRequest(http.MethodOptions, url, nil)
	if err != nil {
		// Only reachable with a malformed URL, which probePort never builds.
		panic(err)
	}
	return req
}
