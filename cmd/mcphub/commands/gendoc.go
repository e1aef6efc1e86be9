package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

var (
	genDocDir    string
	genDocFormat string
)

func init() {
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "", "output directory")
	genDocCmd.Flags().StringVar(&genDocFormat, "format", "markdown", "output format: markdown or man")
	rootCmd.AddCommand(genDocCmd)
}

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate reference documentation for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runGenDoc,
}

func runGenDoc(cmd *cobra.Command, _ []string) error {
	if genDocDir == "" {
		return errors.NewUserError(errors.New("output directory is required"), "Pass --dir")
	}
	if err := os.MkdirAll(genDocDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	var err error
	switch genDocFormat {
	case "markdown":
		err = doc.GenMarkdownTreeCustom(root, genDocDir, docFrontMatter, docLink)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{Title: "MCPHUB", Section: "1"}, genDocDir)
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", genDocFormat), "Use --format markdown or man")
	}
	if err != nil {
		return errors.Wrapf(err, "generating %s", genDocFormat)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Documentation generated in %s\n", genDocDir)
	return nil
}

// docFrontMatter turns mcphub_config_set.md into a "config set" title.
func docFrontMatter(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	title := strings.ReplaceAll(base, "_", " ")
	return fmt.Sprintf("---\ntitle: %q\ndescription: %q\n---\n", title, "Reference for "+title)
}

func docLink(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return "/docs/reference/" + strings.ToLower(base) + "/"
}
