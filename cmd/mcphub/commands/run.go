package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/redact"
	"github.com/Cognitive-Stack/mcphub/internal/servers"
)

var (
	runSSE         bool
	runPort        int
	runBaseURL     string
	runSSEPath     string
	runMessagePath string
	runDetach      bool
)

func init() {
	runCmd.Flags().BoolVar(&runSSE, "sse", false, "expose the stdio server over SSE via supergateway")
	runCmd.Flags().IntVar(&runPort, "port", 0, "port to listen on (default: first free port from default_port)")
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "base URL advertised by supergateway")
	runCmd.Flags().StringVar(&runSSEPath, "sse-path", servers.DefaultSSEPath, "SSE endpoint path")
	runCmd.Flags().StringVar(&runMessagePath, "message-path", servers.DefaultMessagePath, "message endpoint path")
	runCmd.Flags().BoolVarP(&runDetach, "detach", "d", false, "start in the background and return immediately")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <server>",
	Short: "Start an MCP server",
	Long: `Start a server defined in .mcphub.json and record it in the process
registry.

The server gets a --port argument unless its command already has one.
When that port is held by another running instance, the next free port
is used instead. Output goes to <data-dir>/logs/<server>-<port>.log.

Without --detach the command waits for the server and stops it on Ctrl+C.`,
	Example: `  # Run in the foreground
  mcphub run github

  # Run over SSE in the background on a specific port
  mcphub run github --sse --port 8000 -d`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
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

	command, err := servers.BuildCommand(srv, servers.RunOptions{
		SSE:         runSSE,
		Port:        runPort,
		BaseURL:     runBaseURL,
		SSEPath:     runSSEPath,
		MessagePath: runMessagePath,
	})
	if err != nil {
		return err
	}

	m, err := newManager(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pid, err := m.Start(ctx, name, command, srv.ResolvedEnv(), lifecycle.WithDir(srv.Cwd))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	printStarted(w, m, pid)

	if runDetach {
		fmt.Fprintf(w, "Use 'mcphub kill %d' to stop it\n", pid)
		return nil
	}

	fmt.Fprintln(w, "Server is running... (Ctrl+C to stop)")
	return waitForeground(ctx, w, m, pid)
}

// printStarted reports the new instance with its command, ports and warnings.
func printStarted(w io.Writer, m *lifecycle.Manager, pid int) {
	info, ok := m.GetProcessInfo(pid)
	if !ok {
		fmt.Fprintf(w, "Started process %d\n", pid)
		return
	}
	inst := info.Instance

	fmt.Fprintf(w, "%s %s\n", mutedStyle.Sprint("$"), strings.Join(redact.Args(inst.Command), " "))
	fmt.Fprintf(w, "Started %s (pid %d) on port %s\n", nameStyle.Sprint(inst.Name), pid, joinPorts(inst.Ports))
	for _, warning := range inst.Warnings {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Sprint("Warning:"), warning)
	}
	if inst.LogFile != "" {
		fmt.Fprintf(w, "Logs: %s\n", inst.LogFile)
	}
}

// waitForeground blocks until the server exits or ctx is cancelled. A
// cancelled ctx stops the server.
func waitForeground(ctx context.Context, w io.Writer, m *lifecycle.Manager, pid int) error {
	err := m.Wait(ctx, pid)
	if err == nil {
		logFile := ""
		if info, ok := m.GetProcessInfo(pid); ok {
			logFile = info.Instance.LogFile
		}
		if _, ferr := m.Forget(pid); ferr != nil {
			return ferr
		}
		fmt.Fprintln(w, "Server exited")
		if logFile != "" {
			fmt.Fprintf(w, "See %s for its output\n", logFile)
		}
		return nil
	}

	if _, serr := m.Stop(context.WithoutCancel(ctx), pid); serr != nil {
		return serr
	}
	fmt.Fprintln(w, "Server stopped")
	return nil
}
