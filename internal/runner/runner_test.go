package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunDeliversLines(t *testing.T) {
	r := New()

	var lines []string
	err := r.Run(context.Background(), `printf 'one\ntwo\nthree\n'`, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(lines), lines, len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunMergesStderr(t *testing.T) {
	r := New()

	var lines []string
	err := r.Run(context.Background(), `echo out; echo err 1>&2`, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %v, want both streams", lines)
	}
}

func TestRunSkipsEmptyLines(t *testing.T) {
	r := New()

	var lines []string
	err := r.Run(context.Background(), `printf 'a\n\n\nb\n'`, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("lines = %v, want [a b]", lines)
	}
}

func TestRunSplitsCarriageReturns(t *testing.T) {
	r := New()

	// status-line style output redrawn with \r
	var lines []string
	err := r.Run(context.Background(), `printf 'Pos: 1s (10%%)\rPos: 2s (20%%)\n'`, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2 entries", lines)
	}
}

func TestRunHandlerErrorAborts(t *testing.T) {
	r := New()

	fatal := errors.New("bad option in stream")
	count := 0
	err := r.Run(context.Background(), `printf 'a\nb\nc\n'`, func(line string) error {
		count++
		if line == "b" {
			return fatal
		}
		return nil
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Run error = %v, want handler error", err)
	}
	if count != 2 {
		t.Errorf("handler called %d times, want 2", count)
	}
}

func TestRunIgnoresNonZeroExit(t *testing.T) {
	r := New()

	err := r.Run(context.Background(), `echo fine; exit 3`, nil)
	if err != nil {
		t.Errorf("Run error = %v, want nil for non-zero exit", err)
	}
}

func TestRunContextCancellation(t *testing.T) {
	r := New()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, `exec sleep 30`, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took %v", elapsed)
	}
}

func TestRunMissingCommandReportedInStream(t *testing.T) {
	r := New()

	// the shell itself launches fine and reports the failure as text
	var lines []string
	err := r.Run(context.Background(), `no-such-binary-31c7 2>&1`, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(lines) == 0 {
		t.Error("expected the shell's not-found message on the stream")
	}
}
