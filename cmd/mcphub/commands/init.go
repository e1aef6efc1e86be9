package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/editor"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
	"github.com/Cognitive-Stack/mcphub/internal/servers"
)

var (
	initGlobal bool
	initTOML   bool
	initEdit   bool
)

func init() {
	initCmd.Flags().BoolVarP(&initGlobal, "global", "g", false, "create the file in the data directory instead")
	initCmd.Flags().BoolVar(&initTOML, "toml", false, "write .mcphub.toml instead of .mcphub.json")
	initCmd.Flags().BoolVarP(&initEdit, "edit", "e", false, "open the new file in your editor")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty servers config",
	Long: `Create .mcphub.json with an empty mcpServers map in the current
directory, or in the data directory with --global.

An existing file is never overwritten.`,
	Example: `  mcphub init
  mcphub init --global --toml --edit`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}
	if initGlobal {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}
		dir = cfg.DataDir
	}

	name := paths.ServersConfigNames[0]
	if initTOML {
		name = paths.ServersConfigNames[1]
	}
	path := filepath.Join(dir, name)

	if err := servers.WriteDefault(path); err != nil {
		return errors.NewUserError(err, "Edit the existing file or remove it first")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created %s\n", path)

	if initEdit {
		return editor.Open(path, w)
	}
	fmt.Fprintln(w, "Add servers under \"mcpServers\", then start one with 'mcphub run <name>'")
	return nil
}
