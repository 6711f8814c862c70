package envcheck

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 5 * time.Second

// Commander abstracts command execution so checks can be tested against
// canned outputs.
type Commander interface {
	// Output runs the command and returns its combined stdout, trimmed.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// LookPath reports whether the binary exists on PATH.
	LookPath(name string) bool
}

type execCommander struct{}

// NewCommander returns the Commander backed by the real PATH.
func NewCommander() Commander {
	return execCommander{}
}

func (execCommander) Output(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (execCommander) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
