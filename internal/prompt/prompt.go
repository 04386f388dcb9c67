// Package prompt asks the user yes/no questions on the terminal.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapmigrate/pkg/core"
)

// WarningStyle renders destructive questions.
var WarningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))

// Confirmer implements core.Confirmer. Only "y" and "yes" (any case) count
// as consent; an empty answer, end of input or an interrupt is a refusal.
type Confirmer struct {
	in  io.Reader
	out io.Writer

	// Interactive selects readline line editing.
	Interactive bool
}

// New creates a Confirmer reading answers from in and writing questions to
// out. Line editing is enabled when both are terminals.
func New(in io.Reader, out io.Writer) *Confirmer {
	return &Confirmer{in: in, out: out, Interactive: isTerminal(in) && isTerminal(out)}
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// Confirm asks question and reports whether the user agreed.
func (c *Confirmer) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	text := question + " [y/N] "
	var (
		answer string
		err    error
	)
	if c.Interactive {
		answer, err = c.readline(WarningStyle.Render(question) + " [y/N] ")
	} else {
		answer, err = c.readLine(text)
	}
	if err != nil {
		return false, err
	}
	return Affirmative(answer), nil
}

func (c *Confirmer) readline(promptText string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptText,
		Stdin:           io.NopCloser(c.in),
		Stdout:          c.out,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return "", fmt.Errorf("failed to initialize prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", nil
	}
	return line, err
}

func (c *Confirmer) readLine(promptText string) (string, error) {
	if _, err := fmt.Fprint(c.out, promptText); err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(c.in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	return "", scanner.Err()
}

// Affirmative reports whether answer is a yes.
func Affirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// Always answers every question with yes. It backs the --yes flag.
var Always = core.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

var _ core.Confirmer = (*Confirmer)(nil)
