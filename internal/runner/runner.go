// Package runner executes external commands under a shell and streams their
// combined output line by line to a caller-supplied handler.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	// DefaultShell interprets the command strings the builders produce.
	DefaultShell = "/bin/sh"

	// DefaultMissLimit is how many consecutive blank reads are tolerated
	// before the stream is declared finished. Encoders emit output in
	// irregular bursts; treating the first blank read as EOF would
	// truncate their output.
	DefaultMissLimit = 5
)

// LineHandler receives each non-empty output line. Returning an error aborts
// the run immediately: the subprocess is killed and the error is returned
// unchanged from Run.
type LineHandler func(line string) error

// Runner launches shell commands and drains their merged stdout/stderr.
// The zero value is not usable; call New.
type Runner struct {
	shell     string
	missLimit int
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell overrides the shell binary used to interpret commands.
func WithShell(shell string) Option {
	return func(r *Runner) {
		r.shell = shell
	}
}

// WithMissLimit overrides the consecutive blank-read tolerance.
func WithMissLimit(limit int) Option {
	return func(r *Runner) {
		r.missLimit = limit
	}
}

// New creates a Runner with default shell and blank-read tolerance.
func New(opts ...Option) *Runner {
	r := &Runner{
		shell:     DefaultShell,
		missLimit: DefaultMissLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes command under the shell, merging stdout and stderr into one
// stream, and invokes handler for every non-empty line. A nil handler just
// drains the stream. The subprocess's exit status is deliberately ignored:
// the tools this drives report real failures in their output text, and
// several of them exit non-zero on success paths. Context cancellation kills
// the subprocess and returns the context error.
func (r *Runner) Run(ctx context.Context, command string, handler LineHandler) error {
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)

	pr, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return fmt.Errorf("failed to start command: %w", err)
	}

	// The child holds its own copy of the write end; ours has to go so the
	// read side sees EOF when the child exits.
	pw.Close()

	handlerErr := r.consume(pr, handler)

	if handlerErr != nil {
		cmd.Process.Kill()
	}
	pr.Close()
	cmd.Wait()

	if handlerErr != nil {
		return handlerErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// consume reads the stream line by line until the blank-read tolerance is
// exhausted or the handler signals a fatal condition.
func (r *Runner) consume(stream io.Reader, handler LineHandler) error {
	reader := bufio.NewReader(stream)
	misses := 0

	for {
		line, err := reader.ReadString('\n')

		if len(line) == 0 {
			if err != nil && err != io.EOF {
				return fmt.Errorf("failed to read command output: %w", err)
			}
			misses++
			if misses > r.missLimit {
				return nil
			}
			continue
		}
		misses = 0

		// mencoder redraws its status line with \r
		for _, part := range strings.Split(strings.TrimRight(line, "\n"), "\r") {
			if part == "" {
				continue
			}
			if handler != nil {
				if herr := handler(part); herr != nil {
					return herr
				}
			}
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read command output: %w", err)
		}
	}
}
