// Package opener hands URLs to an external program and lets it run on its own.
package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/sys/execabs"
)

// DefaultCommand opens targets with the desktop's preferred handler.
const DefaultCommand = "xdg-open"

// Placeholder is replaced by the target in a command template.
const Placeholder = "{}"

// Errors returned by Open.
var (
	ErrEmptyTarget   = errors.New("empty target")
	ErrInvalidTarget = errors.New("target must not start with '-'")
	ErrEmptyCommand  = errors.New("open command produced empty argv")
)

// Command opens targets by starting a detached process. It never waits for
// the process to finish.
type Command struct {
	argv []string
}

// New parses template with POSIX shell quoting rules. Each Placeholder
// argument is replaced by the target; without one, the target is appended.
// An empty template uses DefaultCommand.
func New(template string) (*Command, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultCommand
	}
	argv, err := shlex.Split(template)
	if err != nil {
		return nil, fmt.Errorf("splitting open command: %w", err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{argv: argv}, nil
}

// Args returns the argv that would open target.
func (c *Command) Args(target string) []string {
	args := make([]string, 0, len(c.argv)+1)
	substituted := false
	for _, a := range c.argv {
		if strings.Contains(a, Placeholder) {
			a = strings.ReplaceAll(a, Placeholder, target)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, target)
	}
	return args
}

// Open validates target and starts the command for it.
func (c *Command) Open(target string) error {
	cmd, err := c.command(target)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	// Detach from child - let it run independently
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("release %s: %w", cmd.Path, err)
	}
	return nil
}

func (c *Command) command(target string) (*exec.Cmd, error) {
	if err := Validate(target); err != nil {
		return nil, err
	}
	args := c.Args(target)

	// execabs refuses binaries resolved relative to the working directory.
	cmd := execabs.Command(args[0], args[1:]...) //nolint:gosec // G204: argv comes from user config
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setProcAttr(cmd)
	return cmd, nil
}

// Validate rejects targets that are empty or could be read as an option.
func Validate(target string) error {
	if strings.TrimSpace(target) == "" {
		return ErrEmptyTarget
	}
	if strings.HasPrefix(target, "-") {
		return ErrInvalidTarget
	}
	return nil
}
