package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout keeps the timestamp free of spaces so a line splits back
// into its fields.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Placeholder stands in for an empty uuid or phase field.
const Placeholder = "-"

// Names of the events written by the stopwatch.
const (
	NameStart    = "start"
	NamePausing  = "pausing"
	NameResuming = "resuming"
	NameStop     = "stop"
)

// ErrMalformedLine is returned when a log line has fewer than four fields.
var ErrMalformedLine = errors.New("malformed event log line")

// Entry is one line of the event log.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	UUID      string    `json:"uuid"`
	Phase     string    `json:"phase"`
	Event     string    `json:"event"`
	Comment   string    `json:"comment"`
}

// Format renders the entry as "<timestamp> <uuid> <phase> <event> <comment>".
// Line breaks in the comment are flattened to spaces.
func (e Entry) Format() string {
	return fmt.Sprintf("%s %s %s %s %s",
		e.Timestamp.Format(TimestampLayout),
		field(e.UUID),
		field(e.Phase),
		field(e.Event),
		flatten(e.Comment),
	)
}

// ParseLine splits a formatted line back into an Entry. The comment is the
// remainder of the line and may contain spaces.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, " ", 5)
	if len(parts) < 4 {
		return Entry{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	ts, err := time.ParseInLocation(TimestampLayout, parts[0], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedLine, err)
	}
	entry := Entry{
		Timestamp: ts,
		UUID:      parts[1],
		Phase:     parts[2],
		Event:     parts[3],
	}
	if len(parts) == 5 {
		entry.Comment = parts[4]
	}
	return entry, nil
}

func field(value string) string {
	value = strings.Join(strings.Fields(value), "_")
	if value == "" {
		return Placeholder
	}
	return value
}

func flatten(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value)
}
