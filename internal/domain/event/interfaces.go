package event

import "context"

// Appender durably appends one line to the event log.
type Appender interface {
	Append(ctx context.Context, line string) error
}

// PhaseSource reports the phase currently selected by the host.
type PhaseSource interface {
	CurrentPhase() string
}

// PhaseSourceFunc adapts a function to PhaseSource.
type PhaseSourceFunc func() string

// CurrentPhase calls f.
func (f PhaseSourceFunc) CurrentPhase() string {
	return f()
}
