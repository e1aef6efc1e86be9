package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/logging"
	"github.com/Cognitive-Stack/mcphub/internal/prompt"
	"github.com/Cognitive-Stack/mcphub/internal/redact"
)

var (
	killForce       bool
	killAll         bool
	killInteractive bool
	killYes         bool
)

// pickInstance chooses one of infos; tests replace it.
var pickInstance = findInstance

// stdinIsTerminal decides whether kill --all asks before stopping.
var stdinIsTerminal = logging.IsTerminal

func init() {
	killCmd.Flags().BoolVarP(&killForce, "force", "f", false, "send SIGKILL without a grace period")
	killCmd.Flags().BoolVar(&killAll, "all", false, "stop every tracked instance")
	killCmd.Flags().BoolVarP(&killInteractive, "interactive", "i", false, "pick the instance to stop interactively")
	killCmd.Flags().BoolVarP(&killYes, "yes", "y", false, "do not ask before stopping every instance")
	killCmd.MarkFlagsMutuallyExclusive("all", "interactive")
	rootCmd.AddCommand(killCmd)
}

var killCmd = &cobra.Command{
	Use:   "kill [pid]",
	Short: "Stop a running MCP server instance",
	Long: `Stop an instance started by mcphub.

The process gets SIGTERM and, if it is still alive after the grace period,
SIGKILL. With --force it gets SIGKILL straight away. Only processes in the
registry can be stopped; use 'mcphub ps' to find their pids.

--all asks for confirmation when run from a terminal unless --yes is given.`,
	Example: `  mcphub kill 12345
  mcphub kill 12345 --force
  mcphub kill --all --yes
  mcphub kill -i`,
	Args: validateKillArgs,
	RunE: runKill,
}

func validateKillArgs(_ *cobra.Command, args []string) error {
	selectors := len(args)
	if killAll {
		selectors++
	}
	if killInteractive {
		selectors++
	}
	if selectors != 1 || len(args) > 1 {
		return errors.NewUserError(errors.New("specify exactly one of <pid>, --all or -i"), "See 'mcphub kill --help'")
	}
	return nil
}

func runKill(cmd *cobra.Command, args []string) error {
	m, err := newManager(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch {
	case killAll:
		ok, err := confirmKillAll(cmd, m)
		if err != nil || !ok {
			return err
		}
		n, err := m.StopAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Stopped %d instance(s)\n", n)
		return nil

	case killInteractive:
		infos, err := m.ListProcesses()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Fprintln(w, "No MCP servers running")
			return nil
		}
		idx, err := pickInstance(infos)
		if err != nil {
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil
			}
			return errors.Wrap(err, "interactive selection failed")
		}
		return killPID(cmd, w, m, infos[idx].Instance.PID)
	}

	pid, err := strconv.Atoi(args[0])
	if err != nil || pid <= 0 {
		return errors.NewUserError(errors.Newf("invalid pid %q", args[0]), "Use 'mcphub ps' to see running MCP servers")
	}
	return killPID(cmd, w, m, pid)
}

func killPID(cmd *cobra.Command, w io.Writer, m *lifecycle.Manager, pid int) error {
	info, ok := m.GetProcessInfo(pid)
	if !ok {
		return errors.Mark(errors.Newf("Process %d not found or not an MCP server", pid), errors.ErrProcessNotFound)
	}
	name := info.Instance.Name

	if killForce {
		if err := m.ForceKill(pid); err != nil {
			if errors.Is(err, errors.ErrProcessNotFound) {
				_, _ = m.Forget(pid)
			}
			return err
		}
		if _, err := m.Forget(pid); err != nil {
			return err
		}
		fmt.Fprintf(w, "Process %d killed forcefully\n", pid)
		return nil
	}

	stopped, err := m.Stop(cmd.Context(), pid)
	if err != nil {
		return err
	}
	if !stopped {
		return errors.NewUserError(errors.Newf("Failed to stop process %d", pid), "Try using -f/--force to force kill")
	}

	fmt.Fprintf(w, "Successfully stopped MCP server process %d\n", pid)
	fmt.Fprintf(w, "Server '%s' is no longer running\n", name)
	return nil
}

// confirmKillAll asks before stopping everything when stdin is a terminal.
func confirmKillAll(cmd *cobra.Command, m *lifecycle.Manager) (bool, error) {
	if killYes || !stdinIsTerminal(cmd.InOrStdin()) {
		return true, nil
	}
	infos, err := m.ListProcesses()
	if err != nil {
		return false, err
	}
	if len(infos) == 0 {
		return true, nil
	}

	w := cmd.OutOrStdout()
	ok, err := prompt.NewConfirmer(cmd.InOrStdin(), w).Confirm(
		fmt.Sprintf("Stop %d instance(s)?", len(infos)), false)
	if errors.Is(err, prompt.ErrCancelled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Fprintln(w, "Aborted")
	}
	return ok, nil
}

// findInstance runs the fuzzy finder over infos.
func findInstance(infos []lifecycle.Info) (int, error) {
	return fuzzyfinder.Find(
		infos,
		func(i int) string {
			inst := infos[i].Instance
			return fmt.Sprintf("%s (pid %d, ports %s)", inst.Name, inst.PID, joinPorts(inst.Ports))
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			inst := infos[i].Instance
			return fmt.Sprintf("Name: %s\nPID: %d\nPorts: %s\nStatus: %s\nUptime: %s\n\nCommand:\n%s",
				inst.Name,
				inst.PID,
				joinPorts(inst.Ports),
				inst.Status,
				infos[i].Uptime,
				strings.Join(redact.Args(inst.Command), " "),
			)
		}),
	)
}
