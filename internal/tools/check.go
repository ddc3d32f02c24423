// Package tools verifies that the external utilities the pipeline drives
// (mplayer, mencoder, ffmpeg, yamdi) are actually invocable before any
// conversion work starts.
package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// NotFoundError reports a single required utility that could not be launched.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("utility %s not found: %v", e.Name, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// MissingError aggregates every required utility missing for an operation.
type MissingError struct {
	Missing []*NotFoundError
}

func (e *MissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.Name
	}
	return fmt.Sprintf("required utilities not available: %s", strings.Join(names, ", "))
}

// Check runs `name --help` and discards its output. An error launching the
// process means the binary is missing or not executable. A process that
// launches and exits non-zero is fine; many tools exit non-zero on a bare
// help query.
func Check(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, name, "--help")
	cmd.Stdout = nil
	cmd.Stderr = nil

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return &NotFoundError{Name: name, Err: err}
}

// Require checks every named utility and returns a single MissingError
// covering all that failed, or nil when everything is present.
func Require(ctx context.Context, names ...string) error {
	var missing []*NotFoundError
	for _, name := range names {
		if err := Check(ctx, name); err != nil {
			var nf *NotFoundError
			if e, ok := err.(*NotFoundError); ok {
				nf = e
			} else {
				nf = &NotFoundError{Name: name, Err: err}
			}
			missing = append(missing, nf)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Missing: missing}
	}
	return nil
}
