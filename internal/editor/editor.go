// Package editor launches the user's text editor on mcphub's config files.
package editor

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// EnvVar overrides $EDITOR and $VISUAL for mcphub only.
const EnvVar = "MCPHUB_EDITOR"

// Open runs the preferred editor on path and waits for it to exit. The
// editor setting may carry arguments, e.g. "code --wait".
func Open(path string, w io.Writer) error {
	argv := strings.Fields(detectEditor())
	if len(argv) == 0 {
		return errors.New("no editor configured")
	}

	if w != nil {
		_, _ = io.WriteString(w, "Location: "+path+"\n")
	}

	cmd := exec.Command(argv[0], append(argv[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.WithHintf(errors.Wrapf(err, "running editor %q", argv[0]),
			"Set %s or $EDITOR to an installed editor", EnvVar)
	}
	return nil
}

// detectEditor follows $MCPHUB_EDITOR, $EDITOR, $VISUAL, then nano, then vi.
func detectEditor() string {
	for _, key := range []string{EnvVar, "EDITOR", "VISUAL"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}

	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
