package shell

import (
	"testing"
)

func TestEscapeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain", "movie.avi"},
		{"empty", ""},
		{"spaces", "my movie file.avi"},
		{"single quote", "o'brien.avi"},
		{"many quotes", "'''"},
		{"backslash", `back\slash.avi`},
		{"quote and backslash", `it's a \'test\'`},
		{"shell metachars", "a;rm -rf $(HOME) && `date` | cat"},
		{"newline", "line one\nline two"},
		{"unicode", "фильм – видео.avi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped := Escape(tt.input)

			tokens, err := Split(escaped)
			if err != nil {
				t.Fatalf("Split(%q) error: %v", escaped, err)
			}
			if len(tokens) != 1 {
				t.Fatalf("Split(%q) = %d tokens, want 1", escaped, len(tokens))
			}
			if tokens[0] != tt.input {
				t.Errorf("round trip = %q, want %q", tokens[0], tt.input)
			}
		})
	}
}

func TestEscapeEmbeddedInCommand(t *testing.T) {
	command := "ffmpeg -i " + Escape("it's here.avi") + " -o " + Escape("out put.flv")

	tokens, err := Split(command)
	if err != nil {
		t.Fatalf("Split error: %v", err)
	}

	want := []string{"ffmpeg", "-i", "it's here.avi", "-o", "out put.flv"}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(tokens), tokens, len(want))
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated single", "'abc"},
		{"unterminated double", `"abc`},
		{"trailing backslash", `abc\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Split(tt.input); err == nil {
				t.Errorf("Split(%q) expected error, got nil", tt.input)
			}
		})
	}
}
