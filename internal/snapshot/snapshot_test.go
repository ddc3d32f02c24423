package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mediakit/convert/internal/runner"
)

func TestPlan(t *testing.T) {
	offsets := Plan(100, 10)

	want := []int{1, 11, 21, 31, 41, 51, 61, 71, 81, 91, 100, 50}
	if len(offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d = %d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestPlanShortVideo(t *testing.T) {
	// step clamps to 1 when duration < count
	offsets := Plan(5, 10)
	want := []int{1, 2, 3, 5, 2}
	if len(offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("offset %d = %d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestPlanDegenerate(t *testing.T) {
	if got := Plan(0, 10); got != nil {
		t.Errorf("Plan(0, 10) = %v, want nil", got)
	}
	if got := Plan(100, 0); got != nil {
		t.Errorf("Plan(100, 0) = %v, want nil", got)
	}
}

func TestFilenameCarriesRunID(t *testing.T) {
	name := Filename("/out/movie.flv", 42, "deadbeef-cafe-4000")
	if name != "/out/movie.flv_42_deadbeef.jpeg" {
		t.Errorf("Filename = %q", name)
	}
}

// fakeFFmpeg writes a stub that copies a fixed payload to its last argument,
// or nothing at all when empty is true.
func fakeFFmpeg(t *testing.T, dir string, empty bool) string {
	t.Helper()
	path := filepath.Join(dir, "fake-ffmpeg")
	body := "#!/bin/sh\nfor out; do :; done\nprintf 'jpegdata' > \"$out\"\n"
	if empty {
		body = "#!/bin/sh\nfor out; do :; done\n: > \"$out\"\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCaptureSuccess(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(runner.New(), fakeFFmpeg(t, dir, false))

	output := filepath.Join(dir, "thumb.jpeg")
	ok, err := g.Capture(context.Background(), "video.flv", output, 10)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if !ok {
		t.Fatal("Capture = false, want true")
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
}

func TestCaptureEmptyOutputDiscarded(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(runner.New(), fakeFFmpeg(t, dir, true))

	output := filepath.Join(dir, "thumb.jpeg")
	ok, err := g.Capture(context.Background(), "video.flv", output, 10)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if ok {
		t.Error("Capture = true for empty output, want false")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("partial snapshot file should have been deleted")
	}
}

func TestSetSkipsFailedOffsets(t *testing.T) {
	dir := t.TempDir()

	// fails on even offsets, succeeds on odd ones
	path := filepath.Join(dir, "fake-ffmpeg")
	body := `#!/bin/sh
offset=$2
for out; do :; done
case $((offset % 2)) in
0) : > "$out" ;;
*) printf 'jpegdata' > "$out" ;;
esac
`
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	g := NewGenerator(runner.New(), path)
	video := filepath.Join(dir, "video.flv")

	set, err := g.Set(context.Background(), video, 10, 5, "runid123")
	if err != nil {
		t.Fatalf("Set error: %v", err)
	}

	// plan for duration 10, count 5: 1,3,5,7,10,5 -> unique 1,3,5,7,10
	// even offsets produce empty files and are skipped
	for offset := range set {
		if offset%2 == 0 {
			t.Errorf("offset %d should have failed", offset)
		}
	}
	if len(set) != 4 {
		t.Errorf("set = %v, want the four odd offsets", set)
	}
	for offset, file := range set {
		if !strings.Contains(file, "runid123") {
			t.Errorf("snapshot name %q missing run id", file)
		}
		info, err := os.Stat(file)
		if err != nil || info.Size() == 0 {
			t.Errorf("offset %d file %q unusable", offset, file)
		}
	}
}
