// Package gtfstime converts between GTFS HH:MM:SS literals and
// seconds since midnight of the service day.
//
// GTFS times routinely exceed 24:00:00 for post-midnight service, so
// parsed values are plain int64 seconds and never wrap. Wrapping to a
// wall clock happens only in Clock, at display boundaries.
package gtfstime

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Infinity marks "no such time". Parse failures map to it, and the
// router uses it as the unreached label.
const Infinity int64 = math.MaxInt64

var timeRe = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`)

// Seconds parses an HH:MM:SS literal. Anything that doesn't match
// returns Infinity; callers treat that as "drop the row" or
// "no-result" depending on context.
func Seconds(s string) int64 {
	if !timeRe.MatchString(s) {
		return Infinity
	}
	parts := strings.SplitN(s, ":", 3)
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	sec, _ := strconv.Atoi(parts[2])
	return int64(h)*3600 + int64(m)*60 + int64(sec)
}

// Format renders seconds as zero-padded HH:MM:SS without wrapping, so
// post-midnight times come out as e.g. "25:07:00".
func Format(sec int64) string {
	if sec == Infinity || sec < 0 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// Clock renders seconds as a wall clock time, wrapping at 24h.
func Clock(sec int64) string {
	if sec == Infinity || sec < 0 {
		return ""
	}
	return Format(sec % 86400)
}
