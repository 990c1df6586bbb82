package encode

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseTimeMarker(t *testing.T) {
	cases := []struct {
		line    string
		seconds float64
		ok      bool
	}{
		{"frame= 100 time=00:00:05.50 bitrate= 1k", 5.5, true},
		{"frame= 100 time=01:02:03.25 speed=1x", 3723.25, true},
		{"size=  512kB", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseTimeMarker(tc.line)
		if ok != tc.ok || got != tc.seconds {
			t.Fatalf("parseTimeMarker(%q) = %v,%v want %v,%v", tc.line, got, ok, tc.seconds, tc.ok)
		}
	}
}

func TestScanStatusLinesSplitsCarriageReturns(t *testing.T) {
	input := "line1\rline2\nline3"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanStatusLines)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 3 || lines[0] != "line1" || lines[1] != "line2" || lines[2] != "line3" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}
