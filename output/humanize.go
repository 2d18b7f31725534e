package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HumanizeSeconds renders seconds as H:MM:SS, with a six digit fraction
// when there are microseconds and a day prefix past 24 hours.
// For example 3725.5 renders as "1:02:05.500000".
func HumanizeSeconds(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	total := int64(math.RoundToEven(seconds * 1e6))
	micros := total % 1e6
	secs := total / 1e6

	days := secs / 86400
	secs %= 86400
	h, m, s := secs/3600, (secs%3600)/60, secs%60

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case days == 1:
		b.WriteString("1 day, ")
	case days > 1:
		fmt.Fprintf(&b, "%d days, ", days)
	}
	fmt.Fprintf(&b, "%d:%02d:%02d", h, m, s)
	if micros != 0 {
		fmt.Fprintf(&b, ".%06d", micros)
	}
	return b.String()
}

// formatSeconds renders a float the way spreadsheets round-trip it:
// shortest exact form, always with a decimal point.
func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
