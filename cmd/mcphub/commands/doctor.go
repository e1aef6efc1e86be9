package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cognitive-Stack/mcphub/internal/backup"
	"github.com/Cognitive-Stack/mcphub/internal/doctor"
	"github.com/Cognitive-Stack/mcphub/internal/errors"
	"github.com/Cognitive-Stack/mcphub/internal/lifecycle"
	"github.com/Cognitive-Stack/mcphub/internal/paths"
	"github.com/Cognitive-Stack/mcphub/internal/procinfo"
	"github.com/Cognitive-Stack/mcphub/internal/registry"
)

var (
	doctorJSON    bool
	doctorVerbose bool
	doctorFix     bool
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorVerbose, "all", false, "show passed checks too")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "repair permissions, purge stale entries and quarantine a corrupt registry")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the mcphub installation",
	Long: `Check file permissions, servers config syntax, the process registry and
the launchers servers need.

Exit codes:
  0 - All checks passed (no errors or warnings)
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  mcphub doctor
  mcphub doctor --fix
  mcphub doctor --json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// errDoctorWarnings and errDoctorErrors carry doctor's exit codes.
var (
	errDoctorWarnings = errors.New("doctor found warnings")
	errDoctorErrors   = errors.New("doctor found errors")
)

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "getting working directory")
	}

	runner := newDoctorRunner(cfg.DataDir, cfg.RegistryFile(), cfg.InstanceLogDir(), cwd)
	report := runner.Run()

	w := cmd.OutOrStdout()
	if doctorFix {
		fixes := runner.Fix()
		if !doctorJSON {
			writeFixes(w, fixes)
		}
		if len(fixes) > 0 {
			report = runner.Run()
		}
	}

	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
	} else {
		writeDoctorText(w, report)
	}

	switch {
	case report.HasErrors():
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	case report.HasWarnings():
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func newDoctorRunner(dataDir, registryFile, logDir, workDir string) *doctor.Runner {
	specs := []doctor.PathSpec{
		{Path: dataDir, Dir: true, Private: true},
		{Path: registryFile, Private: true},
		{Path: logDir, Dir: true, Private: true},
	}
	candidates := paths.ServersConfigCandidates(workDir, dataDir)
	for _, p := range candidates {
		specs = append(specs, doctor.PathSpec{Path: p})
	}

	alive := lifecycle.Tracked(procinfo.System{Timeout: 2 * time.Second})

	runner := doctor.NewRunner()
	runner.AddCheck(doctor.NewPathPermissionCheck(specs...))
	runner.AddCheck(doctor.NewConfigSyntaxCheck(candidates...))
	runner.AddCheck(doctor.NewRegistryCheck(registry.NewFileStore(registryFile), alive).
		WithBackups(backup.NewManager(backup.Dir(dataDir))))
	runner.AddCheck(doctor.NewToolCheck("node", "npx"))
	return runner
}

func writeDoctorText(w io.Writer, report *doctor.Report) {
	shown := 0
	for _, result := range report.Results {
		problem := result.Status == doctor.SeverityError || result.Status == doctor.SeverityWarning
		if !doctorVerbose && !problem {
			continue
		}

		shown++
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if result.FixHint != "" && problem {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	if shown > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

func writeFixes(w io.Writer, fixes []doctor.FixResult) {
	for _, f := range fixes {
		if f.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", nameStyle.Sprint("✓"), f.Path, f.Description)
		} else {
			fmt.Fprintf(w, "%s could not fix %s: %s\n", stoppedStyle.Sprint("✗"), f.Path, f.Description)
		}
	}
	if len(fixes) > 0 {
		fmt.Fprintln(w)
	}
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return nameStyle.Sprint("✓")
	case doctor.SeverityInfo:
		return mutedStyle.Sprint("ℹ")
	case doctor.SeverityWarning:
		return warnStyle.Sprint("⚠")
	case doctor.SeverityError:
		return stoppedStyle.Sprint("✗")
	default:
		return "?"
	}
}
