package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/cmd"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/probe"
	"github.com/Cognitive-Stack/mcphub/internal/redact"
	"github.com/Cognitive-Stack/mcphub/internal/servers"
)

var (
	statusProbe        bool
	statusProbeTimeout time.Duration
)

func init() {
	probe.ClientVersion = cmd.Version

	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "ping SSE instances over the MCP protocol")
	statusCmd.Flags().DurationVar(&statusProbeTimeout, "timeout", probe.DefaultTimeout, "probe timeout")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status <server>",
	Short: "Show configuration and running instances of a server",
	Long: `Show how a server is configured and which instances of it are running.

With --probe, every SSE instance is pinged over the MCP protocol to check
that it answers, not just that its process is alive.`,
	Example: `  mcphub status github
  mcphub status github --probe`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(c *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}
	srvCfg, err := servers.Find(cwd, cfg.DataDir)
	if err != nil {
		return err
	}
	srv, err := srvCfg.Get(name)
	if err != nil {
		return err
	}

	m, err := newManager(c)
	if err != nil {
		return err
	}
	infos, err := m.InstancesOf(name)
	if err != nil {
		return err
	}

	w := c.OutOrStdout()
	writeServerDetails(w, srv)
	fmt.Fprintln(w)

	if len(infos) == 0 {
		fmt.Fprintf(w, "Status: %s\n", stoppedStyle.Sprint("Not Running"))
		return nil
	}

	fmt.Fprintf(w, "Status: %s (%d instance(s))\n", nameStyle.Sprint("Running"), len(infos))
	for _, info := range infos {
		writeInstance(w, info)
		if statusProbe {
			writeProbe(c, w, info)
		}
	}
	return nil
}

func writeServerDetails(w io.Writer, srv *servers.Server) {
	fmt.Fprintln(w, headerStyle.Sprint(srv.Name))
	if srv.Description != "" {
		fmt.Fprintf(w, "  %s\n", srv.Description)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	command := "N/A"
	if stdio, err := srv.StdioCommand(); err == nil {
		command = strings.Join(redact.Args(stdio), " ")
	}
	fmt.Fprintf(tw, "  Command:\t%s\n", command)
	fmt.Fprintf(tw, "  Working Directory:\t%s\n", orNA(srv.Cwd))
	fmt.Fprintf(tw, "  Package:\t%s\n", orNA(srv.PackageName))
	fmt.Fprintf(tw, "  Repository:\t%s\n", orNA(srv.RepoURL))
	_ = tw.Flush()

	if len(srv.Env) == 0 {
		return
	}
	fmt.Fprintln(w, "  Env:")
	masked := redact.Env(srv.Env)
	keys := make([]string, 0, len(masked))
	for k := range masked {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "    %s=%s\n", k, masked[k])
	}
}

func writeInstance(w io.Writer, info lifecycle.Info) {
	inst := info.Instance
	fmt.Fprintf(w, "  - pid %d  ports %s  %s  up %s\n",
		inst.PID, joinPorts(inst.Ports), statusStyle(inst.Status).Sprint(string(inst.Status)), info.Uptime)
	for _, warning := range inst.Warnings {
		fmt.Fprintf(w, "    %s %s\n", warnStyle.Sprint("Warning:"), warning)
	}
}

func writeProbe(c *cobra.Command, w io.Writer, info lifecycle.Info) {
	inst := info.Instance
	if len(inst.Ports) == 0 {
		return
	}
	endpoint, ok := servers.EndpointFromArgs(inst.Command, inst.Ports[0])
	if !ok {
		fmt.Fprintf(w, "    probe: %s\n", mutedStyle.Sprint("skipped (not an SSE instance)"))
		return
	}

	rtt, err := probe.PingSSE(c.Context(), endpoint, statusProbeTimeout)
	if err != nil {
		fmt.Fprintf(w, "    probe: %s %s\n", stoppedStyle.Sprint("unreachable"), mutedStyle.Sprint(err.Error()))
		return
	}
	fmt.Fprintf(w, "    probe: %s %s (%s)\n", nameStyle.Sprint("ok"), endpoint, rtt.Round(time.Millisecond))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
