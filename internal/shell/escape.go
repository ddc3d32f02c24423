// Package shell builds and splits shell-safe argument strings for the
// commands the conversion pipeline hands to /bin/sh.
package shell

import (
	"fmt"
	"strings"
)

// Escape wraps s in single quotes so a POSIX shell treats it as exactly one
// argument with its original byte content. Embedded single quotes are closed
// out, backslash-escaped and reopened ('\'' form).
func Escape(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Split tokenizes a command string the way a POSIX shell would for word
// splitting: whitespace separates tokens, single quotes preserve everything
// literally, double quotes preserve everything except backslash escapes, and
// a bare backslash escapes the next character. It does not expand variables
// or globs.
func Split(s string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		started bool
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case ' ', '\t', '\n':
			if started {
				tokens = append(tokens, current.String())
				current.Reset()
				started = false
			}
		case '\'':
			started = true
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return nil, fmt.Errorf("unterminated single quote at byte %d", i)
			}
			current.WriteString(s[i+1 : i+1+end])
			i += end + 1
		case '"':
			started = true
			i++
			closed := false
			for ; i < len(s); i++ {
				if s[i] == '\\' && i+1 < len(s) {
					current.WriteByte(s[i+1])
					i++
					continue
				}
				if s[i] == '"' {
					closed = true
					break
				}
				current.WriteByte(s[i])
			}
			if !closed {
				return nil, fmt.Errorf("unterminated double quote")
			}
		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("trailing backslash")
			}
			started = true
			current.WriteByte(s[i+1])
			i++
		default:
			started = true
			current.WriteByte(c)
		}
	}

	if started {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
