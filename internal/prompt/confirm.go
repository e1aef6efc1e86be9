// Package prompt asks the user yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Cognitive-Stack/mcphub/internal/errors"
)

// ErrCancelled is returned when input ends before an answer (Ctrl+D).
var ErrCancelled = errors.New("prompt cancelled")

// Confirmer asks yes/no questions.
type Confirmer struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConfirmer reads answers from r and writes questions to w.
func NewConfirmer(r io.Reader, w io.Writer) *Confirmer {
	return &Confirmer{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Confirm prints question with a [y/N] or [Y/n] suffix and reads one line.
// An empty answer picks def. Unrecognized answers ask again, up to three
// times, then count as no.
func (c *Confirmer) Confirm(question string, def bool) (bool, error) {
	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}

	for range 3 {
		fmt.Fprintf(c.writer, "%s %s ", question, suffix)

		line, err := c.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.writer)
				return false, ErrCancelled
			}
			return false, errors.Wrap(err, "reading answer")
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(c.writer, "Please answer y or n.")
	}
	return false, nil
}
