package progress

import (
	"errors"
	"testing"
)

func collectPercent(t *testing.T, lines []string) ([]Event, error) {
	t.Helper()
	var events []Event
	st := PercentState{}
	for _, line := range lines {
		next, event, err := ConsumePercent(st, line)
		if err != nil {
			return events, err
		}
		st = next
		if event != nil {
			events = append(events, *event)
		}
	}
	return events, nil
}

func TestPercentTracker(t *testing.T) {
	events, err := collectPercent(t, []string{
		"MEncoder 1.5 (C) 2000-2022 MPlayer Team",
		"Pos:   1.2s     30f ( 10%)  25.00fps Trem:   0min   1mb  A-V:0.060",
		"Pos:   1.3s     33f ( 10%)  25.00fps",
		"Pos:   3.1s     78f ( 25%)  25.00fps",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Event{{Old: 0, New: 10}, {Old: 10, New: 25}}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestPercentTrackerIgnoresOtherLines(t *testing.T) {
	events, err := collectPercent(t, []string{
		"Writing header...",
		"Forcing audio preload to 0, max pts correction to 0.",
		"(10%) appears but not as a Pos marker",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want none", events)
	}
}

func TestPercentTrackerFatalSignature(t *testing.T) {
	_, err := collectPercent(t, []string{
		"Pos:   1.2s     30f ( 10%)",
		"Error parsing option on the command line: -xyz",
		"Pos:   2.0s     50f ( 20%)",
	})
	if !errors.Is(err, ErrWrongCommandLine) {
		t.Fatalf("error = %v, want ErrWrongCommandLine", err)
	}
}

func collectDuration(t *testing.T, lines []string) ([]Event, error) {
	t.Helper()
	var events []Event
	st := DurationState{}
	for _, line := range lines {
		next, event, err := ConsumeDuration(st, line)
		if err != nil {
			return events, err
		}
		st = next
		if event != nil {
			events = append(events, *event)
		}
	}
	return events, nil
}

func TestDurationTracker(t *testing.T) {
	events, err := collectDuration(t, []string{
		"Input #0, avi, from 'in.avi':",
		"  Duration: 00:01:40.00, start: 0.000000, bitrate: 1205 kb/s",
		"frame=  100 fps= 25 q=2.0 size=     128kB time=00:00:50.00 bitrate= 500.0kbits/s",
		"frame=  110 fps= 25 q=2.0 size=     140kB time=00:00:50.40 bitrate= 500.0kbits/s",
		"frame=  200 fps= 25 q=2.0 size=     256kB time=00:01:15.00 bitrate= 500.0kbits/s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Event{{Old: 0, New: 50}, {Old: 50, New: 75}}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestDurationTrackerNoEventsBeforeDuration(t *testing.T) {
	events, err := collectDuration(t, []string{
		"frame=  100 fps= 25 q=2.0 size=     128kB time=00:00:50.00 bitrate= 500.0kbits/s",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %v, want none before a duration line", events)
	}
}

func TestDurationTrackerFloors(t *testing.T) {
	// 10 of 300 seconds is 3.33%, floored to 3
	events, err := collectDuration(t, []string{
		"  Duration: 00:05:00.00, start: 0.0",
		"frame= 1 time=00:00:10.00 bitrate=1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].New != 3 {
		t.Errorf("events = %v, want one event at 3", events)
	}
}

func TestPercentSink(t *testing.T) {
	var events []Event
	handler := PercentSink(func(e Event) { events = append(events, e) })

	lines := []string{
		"Pos:   1.2s     30f ( 10%)",
		"Pos:   1.3s     33f ( 10%)",
		"Pos:   3.1s     78f ( 25%)",
	}
	for _, line := range lines {
		if err := handler(line); err != nil {
			t.Fatalf("handler error: %v", err)
		}
	}
	if len(events) != 2 {
		t.Errorf("events = %v, want 2", events)
	}
}

func TestDurationSinkFatalSignature(t *testing.T) {
	handler := DurationSink(nil)
	err := handler("Error parsing option on the command line: -bad")
	if !errors.Is(err, ErrWrongCommandLine) {
		t.Errorf("error = %v, want ErrWrongCommandLine", err)
	}
}
