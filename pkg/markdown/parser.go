package markdown

import (
	"bufio"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/harrisonrobin/planstack/pkg/model"
)

// Parse scans a planning document and returns its todos in line order.
//
// A todo line looks like
//
//	- [ ] Write the report(2h)
//	- [x] Standup(30m)(45m)
//
// an optional list bullet, a checkbox (space = open, any other single
// non-space character = done), the description, then one or two duration
// groups closing the line: the estimate and, optionally, the time actually
// spent. Lines that don't match, and lines whose estimate comes out to zero
// minutes, are not todos and are skipped.
func Parse(r io.Reader) ([]model.Todo, error) {
	todoRegex := regexp.MustCompile(`^\s*(?:[-*+] )?\[(.)\] (.*?) ?\(([^()]*)\)(?:\(([^()]*)\))?\s*$`)

	scanner := bufio.NewScanner(r)
	var todos []model.Todo
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		matches := todoRegex.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		marker := matches[1]
		if marker != " " && strings.TrimSpace(marker) == "" {
			// Something like a tab between the brackets: neither an open
			// checkbox nor a completion marker.
			continue
		}

		estimate := parseDurationGroup(matches[3])
		if estimate <= 0 {
			// Also filters lines whose trailing parentheses are ordinary
			// prose rather than a duration.
			continue
		}

		todos = append(todos, model.Todo{
			Text:             strings.TrimSpace(matches[2]),
			EstimatedMinutes: estimate,
			ActualMinutes:    parseDurationGroup(matches[4]),
			Completed:        marker != " ",
			SourceLine:       lineNo,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

// ParseFile parses the document at path.
func ParseFile(path string) ([]model.Todo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// parseDurationGroup converts the inside of one duration group to minutes.
// The group is decimal hours and/or integer minutes in that order: "2h",
// "30m", "1h30m", "1.5h". Anything else, including an empty group, is zero.
func parseDurationGroup(group string) int {
	durationRegex := regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)h)?(?:(\d+)m)?$`)

	matches := durationRegex.FindStringSubmatch(group)
	if matches == nil {
		return 0
	}

	total := 0.0
	if matches[1] != "" {
		hours, err := strconv.ParseFloat(matches[1], 64)
		if err != nil {
			return 0
		}
		total += hours * 60
	}
	if matches[2] != "" {
		minutes, err := strconv.Atoi(matches[2])
		if err != nil {
			return 0
		}
		total += float64(minutes)
	}
	if total > math.MaxInt32 {
		// No schedule means that; converting it would overflow int.
		return 0
	}
	return int(math.Round(total))
}
