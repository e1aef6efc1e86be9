package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/servers"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MCP servers",
	Long: `List the servers defined in .mcphub.json (or .mcphub.toml).

The current directory is searched first, then the data directory.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}

	w := cmd.OutOrStdout()
	srvCfg, err := servers.Find(cwd, cfg.DataDir)
	if errors.Is(err, errors.ErrNotFound) {
		fmt.Fprintln(w, "No MCP servers configured")
		fmt.Fprintln(w, "Run 'mcphub init' to create .mcphub.json")
		return nil
	}
	if err != nil {
		return err
	}

	writeServerTable(w, srvCfg)
	return nil
}

func writeServerTable(w io.Writer, srvCfg *servers.Config) {
	names := srvCfg.Names()
	if len(names) == 0 {
		fmt.Fprintf(w, "No MCP servers configured in %s\n", srvCfg.Path)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOMMAND\tPACKAGE\tREPOSITORY\tENV VARS")
	for _, name := range names {
		srv := srvCfg.Servers[name]

		command := "N/A"
		if srv.Command != "" {
			command = strings.TrimSpace(srv.Command + " " + strings.Join(srv.Args, " "))
		}

		envVars := "None"
		if n := len(srv.Env); n > 0 {
			envVars = strconv.Itoa(n)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			name,
			truncate(command, 40),
			orNA(srv.PackageName),
			orNA(srv.RepoURL),
			envVars,
		)
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d server(s)\n", len(names))
	fmt.Fprintln(w, mutedStyle.Sprint("Use 'mcphub ps' to see process details"))
}
