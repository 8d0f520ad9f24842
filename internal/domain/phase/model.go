package phase

import "strings"

// Phase is one of the six PSP process stages.
type Phase string

const (
	Planning   Phase = "planning"
	Design     Phase = "design"
	Code       Phase = "code"
	Compile    Phase = "compile"
	Test       Phase = "test"
	Postmortem Phase = "postmortem"
)

// None marks the absence of a selected phase.
const None Phase = ""

// All lists the phases in process order.
var All = []Phase{Planning, Design, Code, Compile, Test, Postmortem}

// Valid reports whether p is one of the six known phases.
func (p Phase) Valid() bool {
	for _, known := range All {
		if p == known {
			return true
		}
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}

// Parse normalizes a user supplied phase name.
func Parse(name string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return None, ErrUnknownPhase
	}
	return p, nil
}

// Comment explains an interruption recorded against a phase.
type Comment struct {
	Text     string `json:"text"`
	Duration int64  `json:"duration_sec"`
}

// Times is the plan/actual ledger row for a single phase. All counters are
// in seconds.
type Times struct {
	Phase        Phase     `json:"phase"`
	Plan         int64     `json:"plan"`
	Actual       int64     `json:"actual"`
	Interruption int64     `json:"interruption"`
	Comments     []Comment `json:"comments"`
}

// Metric names a column of the plan summary.
type Metric string

const (
	MetricPlan         Metric = "plan"
	MetricActual       Metric = "actual"
	MetricInterruption Metric = "interruption"
	MetricComments     Metric = "comments"
)

// Seconds returns the counter for m, or zero for the comments column.
func (t Times) Seconds(m Metric) int64 {
	switch m {
	case MetricPlan:
		return t.Plan
	case MetricActual:
		return t.Actual
	case MetricInterruption:
		return t.Interruption
	default:
		return 0
	}
}

// PercentOfPlan returns actual time as a percentage of plan. ok is false
// when no plan has been set.
func (t Times) PercentOfPlan() (percent float64, ok bool) {
	if t.Plan == 0 {
		return 0, false
	}
	return 100 * float64(t.Actual) / float64(t.Plan), true
}
