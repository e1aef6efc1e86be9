package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/redact"
)

const createdLayout = "2006-01-02 15:04:05"

var (
	psOutput      string
	psShowSecrets bool
)

func init() {
	psCmd.Flags().StringVarP(&psOutput, "output", "o", "table", "output format: table, json, yaml")
	psCmd.Flags().BoolVar(&psShowSecrets, "show-secrets", false, "reveal secrets in commands and env values")
	rootCmd.AddCommand(psCmd)
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List running MCP server instances",
	Long: `List the MCP server instances recorded in the process registry.

Entries whose process has exited are removed first. Instances are shown
ordered by server name, then port. Tokens in command lines and env values
are masked unless --show-secrets is given.`,
	Example: `  mcphub ps
  mcphub ps -o json`,
	Args: cobra.NoArgs,
	RunE: runPS,
}

// psInstanceOutput represents one instance in JSON and YAML output.
type psInstanceOutput struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	PID       int               `json:"pid" yaml:"pid"`
	Ports     []int             `json:"ports" yaml:"ports"`
	Status    string            `json:"status" yaml:"status"`
	Command   []string          `json:"command" yaml:"command"`
	StartTime string            `json:"start_time" yaml:"start_time"`
	Uptime    string            `json:"uptime" yaml:"uptime"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Warnings  []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	LogFile   string            `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

func runPS(cmd *cobra.Command, _ []string) error {
	m, err := newManager(cmd)
	if err != nil {
		return err
	}
	infos, err := m.ListProcesses()
	if err != nil {
		return err
	}
	return writeProcesses(cmd.OutOrStdout(), infos, psOutput, psShowSecrets)
}

func writeProcesses(w io.Writer, infos []lifecycle.Info, format string, showSecrets bool) error {
	switch format {
	case "table":
		writeProcessTable(w, infos, showSecrets)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(toPSOutput(infos, showSecrets))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toPSOutput(infos, showSecrets)); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return enc.Close()
	default:
		return errors.NewUserError(errors.Newf("invalid output format %q", format), "use -o table, json or yaml")
	}
}

func toPSOutput(infos []lifecycle.Info, showSecrets bool) []psInstanceOutput {
	out := make([]psInstanceOutput, 0, len(infos))
	for _, info := range infos {
		inst := info.Instance
		cmdArgs, env := inst.Command, inst.Env
		if !showSecrets {
			cmdArgs, env = redact.Args(cmdArgs), redact.Env(env)
		}
		out = append(out, psInstanceOutput{
			ID:        info.ID,
			Name:      inst.Name,
			PID:       inst.PID,
			Ports:     inst.Ports,
			Status:    string(inst.Status),
			Command:   cmdArgs,
			StartTime: inst.StartTime.Format(createdLayout),
			Uptime:    info.Uptime,
			Env:       env,
			Warnings:  inst.Warnings,
			LogFile:   inst.LogFile,
		})
	}
	return out
}

// writeProcessTable prints nothing when no instance is running.
func writeProcessTable(w io.Writer, infos []lifecycle.Info, showSecrets bool) {
	if len(infos) == 0 {
		return
	}

	// lay out plain text first; escape codes would skew tabwriter widths
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINSTANCE\tSTATUS\tPID\tPORTS\tCOMMAND\tCREATED\tUPTIME")

	perServer := map[string]int{}
	var warnings []string
	for _, info := range infos {
		inst := info.Instance
		perServer[inst.Name]++

		instance := fmt.Sprintf("#%d", perServer[inst.Name])
		if len(inst.Ports) > 0 {
			instance += fmt.Sprintf(" (:%d)", inst.Ports[0])
		}

		cmdArgs := inst.Command
		if !showSecrets {
			cmdArgs = redact.Args(cmdArgs)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			inst.Name,
			instance,
			inst.Status,
			inst.PID,
			joinPorts(inst.Ports),
			truncate(strings.Join(cmdArgs, " "), 50),
			inst.StartTime.Format(createdLayout),
			info.Uptime,
		)

		for _, warning := range inst.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s (pid %d): %s", inst.Name, inst.PID, warning))
		}
	}
	_ = tw.Flush()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	fmt.Fprintln(w, headerStyle.Sprint(lines[0]))
	for i, line := range lines[1:] {
		fmt.Fprintln(w, statusStyle(infos[i].Instance.Status).Sprint(line))
	}

	if len(warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range warnings {
			fmt.Fprintf(w, "%s %s\n", warnStyle.Sprint("Warning:"), warning)
		}
	}

	fmt.Fprintln(w)
	if len(perServer) == len(infos) {
		fmt.Fprintf(w, "Running: %d server(s)\n", len(infos))
	} else {
		fmt.Fprintf(w, "Running: %d instance(s) of %d server(s)\n", len(infos), len(perServer))
	}
}
