package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestIntervalDuration(t *testing.T) {
	if d, ok := IntervalDuration("15m"); !ok || d != 15*time.Minute {
		t.Fatalf("unexpected 15m: %v %v", d, ok)
	}
	if _, ok := IntervalDuration("2w"); ok {
		t.Fatalf("expected unknown interval")
	}
}

func TestAlignDown(t *testing.T) {
	in := time.Date(2024, 5, 1, 12, 7, 33, 0, time.UTC)
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := AlignDown(in, 15*time.Minute); !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
