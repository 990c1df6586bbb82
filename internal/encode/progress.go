package encode

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
)

// ProgressUpdate reports transcoder advancement. Percent is -1 when the
// media duration is unknown.
type ProgressUpdate struct {
	Seconds float64
	Percent float64
}

var timeMarker = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})\.(\d+)`)

// parseTimeMarker extracts the processed position from an encoder status
// line. Returns false for lines without a time marker.
func parseTimeMarker(line string) (float64, bool) {
	match := timeMarker.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	fraction, _ := strconv.ParseFloat("0."+match[4], 64)
	return float64(hours*3600+minutes*60+seconds) + fraction, true
}

// scanStatusLines splits on both \n and \r, since the encoder rewrites its
// progress line in place with carriage returns.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = scanStatusLines
