package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// Annotation renders the description written onto a completed todo's event.
// Durations are reported in hours; when no actual duration was recorded the
// actual and factor lines read "unavailable".
func Annotation(estimatedMinutes, actualMinutes int) string {
	var b strings.Builder
	b.WriteString("Completed.\n")
	fmt.Fprintf(&b, "Time Estimated: %shrs\n", formatHours(estimatedMinutes))
	if actualMinutes > 0 {
		fmt.Fprintf(&b, "Time Required: %shrs\n", formatHours(actualMinutes))
		fmt.Fprintf(&b, "Factor: %s", trimNumber(float64(actualMinutes)/float64(estimatedMinutes)))
	} else {
		b.WriteString("Time Required: unavailable\n")
		b.WriteString("Factor: unavailable")
	}
	return b.String()
}

func formatHours(minutes int) string {
	return trimNumber(float64(minutes) / 60)
}

// trimNumber renders with two decimals, then strips trailing zeros and a
// trailing dot, so 2.00 reads "2" and 1.50 reads "1.5".
func trimNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
