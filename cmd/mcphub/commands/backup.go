package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/cmd"
	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// backupKinds are the snapshot kinds the CLI knows about.
var backupKinds = []string{backup.KindRegistry, backup.KindConfig}

var (
	backupListJSON bool
	backupKindFlag string
	backupKeep     int
)

func init() {
	backup.Version = cmd.Version

	backupListCmd.Flags().BoolVar(&backupListJSON, "json", false, "output in JSON format")
	backupListCmd.Flags().StringVar(&backupKindFlag, "kind", "", "only list one kind (registry or config)")
	backupPruneCmd.Flags().IntVar(&backupKeep, "keep", backup.DefaultRetentionCount, "number of backups to keep per kind")

	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupPruneCmd)
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage registry and config backups",
	Long: `Manage snapshots of the process registry and the mcphub config file.

'mcphub config set' saves the previous config file before rewriting it, and
'mcphub doctor --fix' moves a corrupt registry into a backup. Backups live
under <data_dir>/backups and the newest five per kind are kept.`,
	Example: `  mcphub backup list
  mcphub backup restore config
  mcphub backup restore registry 20260301T120000
  mcphub backup prune --keep 2

See Also: mcphub doctor, mcphub config set`,
	RunE: func(c *cobra.Command, _ []string) error {
		return c.Help()
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <kind> [backup-id]",
	Short: "Restore a backup",
	Long: `Restore a registry or config backup to its original location.

Without a backup ID the newest backup of that kind is restored. Every file
is checked against the hash recorded when the backup was made.`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completeBackupKinds,
	RunE:              runBackupRestore,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old backups",
	Args:  cobra.NoArgs,
	RunE:  runBackupPrune,
}

type backupListOutput struct {
	Kind    string             `json:"kind"`
	Backups []backupInfoOutput `json:"backups"`
}

type backupInfoOutput struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Reason        string    `json:"reason,omitempty"`
	FileCount     int       `json:"file_count"`
	MCPHubVersion string    `json:"mcphub_version"`
}

func backupManager() (*backup.Manager, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(backup.Dir(cfg.DataDir)), nil
}

func runBackupList(c *cobra.Command, _ []string) error {
	kinds := backupKinds
	if backupKindFlag != "" {
		if err := validateBackupKind(backupKindFlag); err != nil {
			return err
		}
		kinds = []string{backupKindFlag}
	}

	mgr, err := backupManager()
	if err != nil {
		return err
	}

	out := make([]backupListOutput, 0, len(kinds))
	for _, kind := range kinds {
		manifests, err := mgr.List(kind)
		if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
			return errors.Wrapf(err, "listing %s backups", kind)
		}
		entry := backupListOutput{Kind: kind, Backups: make([]backupInfoOutput, 0, len(manifests))}
		for _, m := range manifests {
			entry.Backups = append(entry.Backups, backupInfoOutput{
				ID:            m.ID,
				CreatedAt:     m.CreatedAt,
				Reason:        m.Reason,
				FileCount:     len(m.Files),
				MCPHubVersion: m.MCPHubVersion,
			})
		}
		out = append(out, entry)
	}

	w := c.OutOrStdout()
	if backupListJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(out), "encoding output")
	}
	writeBackupTable(w, out)
	return nil
}

func writeBackupTable(w io.Writer, out []backupListOutput) {
	total := 0
	for i, entry := range out {
		if i > 0 {
			fmt.Fprintln(w)
		}
		headerStyle.Fprintf(w, "%s backups\n", entry.Kind)
		if len(entry.Backups) == 0 {
			mutedStyle.Fprintln(w, "  (none)")
			continue
		}
		total += len(entry.Backups)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tCREATED\tFILES\tREASON")
		for _, b := range entry.Backups {
			reason := b.Reason
			if reason == "" {
				reason = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n",
				b.ID, b.CreatedAt.Local().Format(createdLayout), b.FileCount, reason)
		}
		tw.Flush()
	}

	if total == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No backups available")
	}
}

func runBackupRestore(c *cobra.Command, args []string) error {
	kind := args[0]
	if err := validateBackupKind(kind); err != nil {
		return err
	}

	mgr, err := backupManager()
	if err != nil {
		return err
	}

	var manifest *backup.Manifest
	if len(args) == 2 {
		manifest, err = mgr.Get(kind, args[1])
	} else {
		manifest, err = mgr.Latest(kind)
	}
	if errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.NewUserError(err, "Run 'mcphub backup list' to see available backups")
	}
	if err != nil {
		return err
	}

	if err := mgr.Restore(kind, manifest.ID); err != nil {
		return errors.Wrapf(err, "restoring %s backup %s", kind, manifest.ID)
	}

	w := c.OutOrStdout()
	fmt.Fprintf(w, "Restored %s backup %s\n", kind, manifest.ID)
	for _, f := range manifest.Files {
		fmt.Fprintf(w, "  %s\n", f.OriginalPath)
	}
	return nil
}

func runBackupPrune(c *cobra.Command, _ []string) error {
	if backupKeep < 0 {
		return errors.NewUserError(errors.New("--keep must be non-negative"), "")
	}

	mgr, err := backupManager()
	if err != nil {
		return err
	}
	for _, kind := range backupKinds {
		if err := mgr.Prune(kind, backupKeep); err != nil {
			return errors.Wrapf(err, "pruning %s backups", kind)
		}
	}
	fmt.Fprintf(c.OutOrStdout(), "Kept at most %d backup(s) per kind\n", backupKeep)
	return nil
}

func validateBackupKind(kind string) error {
	if slices.Contains(backupKinds, kind) {
		return nil
	}
	return errors.NewUserError(
		errors.Newf("unknown backup kind %q", kind),
		"Valid kinds: registry, config",
	)
}

func completeBackupKinds(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return backupKinds, cobra.ShellCompDirectiveNoFileComp
}
