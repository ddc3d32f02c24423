// Package progress turns encoder output lines into normalized 0-100%
// progress events. Both tracker variants are pure step functions over an
// explicit state value, so they can be tested without a live subprocess.
package progress

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrWrongCommandLine means the encoder reported a command-line parse error
// in its output stream. The encode must be aborted.
var ErrWrongCommandLine = errors.New("encoder rejected the command line")

// wrongCommandLineMarker is the signature mencoder prints for an unparseable
// option.
const wrongCommandLineMarker = "Error parsing option on the command line"

// Event reports a progress change from Old to New percent.
type Event struct {
	Old int
	New int
}

var (
	posRe      = regexp.MustCompile(`^Pos:.*?\(\s*(\d+)%\)`)
	durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
	timeRe     = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)
)

// PercentState tracks the mencoder-style positional percent marker.
type PercentState struct {
	Percent int
}

// ConsumePercent advances the state with one output line. A new percent
// value distinct from the last seen yields an event; duplicates are
// suppressed. The command-line error signature aborts with
// ErrWrongCommandLine regardless of where it appears in the line.
func ConsumePercent(st PercentState, line string) (PercentState, *Event, error) {
	if strings.Contains(line, wrongCommandLineMarker) {
		return st, nil, ErrWrongCommandLine
	}

	m := posRe.FindStringSubmatch(line)
	if m == nil {
		return st, nil, nil
	}

	current, err := strconv.Atoi(m[1])
	if err != nil {
		return st, nil, nil
	}
	if current == st.Percent {
		return st, nil, nil
	}

	event := &Event{Old: st.Percent, New: current}
	st.Percent = current
	return st, event, nil
}

// DurationState tracks the ffmpeg-style timestamp markers. Until a duration
// announcement has been seen no progress can be computed and no events are
// emitted.
type DurationState struct {
	Percent  int
	Duration int
}

// ConsumeDuration advances the state with one output line. Duration lines
// set the total; time= lines yield floor(elapsed*100/total) events when the
// value changes.
func ConsumeDuration(st DurationState, line string) (DurationState, *Event, error) {
	if strings.Contains(line, wrongCommandLineMarker) {
		return st, nil, ErrWrongCommandLine
	}

	if m := durationRe.FindStringSubmatch(line); m != nil {
		st.Duration = toSeconds(m)
		return st, nil, nil
	}

	m := timeRe.FindStringSubmatch(line)
	if m == nil || st.Duration == 0 {
		return st, nil, nil
	}

	current := toSeconds(m) * 100 / st.Duration
	if current == st.Percent {
		return st, nil, nil
	}

	event := &Event{Old: st.Percent, New: current}
	st.Percent = current
	return st, event, nil
}

// toSeconds converts the HH MM SS capture groups into whole seconds.
func toSeconds(m []string) int {
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	return 3600*h + 60*min + s
}

// PercentSink binds a PercentState to the runner's line-handler contract,
// calling emit for every event.
func PercentSink(emit func(Event)) func(line string) error {
	st := PercentState{}
	return func(line string) error {
		next, event, err := ConsumePercent(st, line)
		if err != nil {
			return err
		}
		st = next
		if event != nil && emit != nil {
			emit(*event)
		}
		return nil
	}
}

// DurationSink binds a DurationState to the runner's line-handler contract,
// calling emit for every event.
func DurationSink(emit func(Event)) func(line string) error {
	st := DurationState{}
	return func(line string) error {
		next, event, err := ConsumeDuration(st, line)
		if err != nil {
			return err
		}
		st = next
		if event != nil && emit != nil {
			emit(*event)
		}
		return nil
	}
}
