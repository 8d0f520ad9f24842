package defect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/psptrack/internal/domain/phase"
)

// Type is a PSP defect type code.
type Type int

const (
	TypeDocumentation Type = 10
	TypeSyntax        Type = 20
	TypeBuild         Type = 30
	TypeAssignment    Type = 40
	TypeInterface     Type = 50
	TypeChecking      Type = 60
	TypeData          Type = 70
	TypeFunction      Type = 80
	TypeSystem        Type = 90
	TypeEnvironment   Type = 100
)

var typeNames = map[Type]string{
	TypeDocumentation: "Documentation",
	TypeSyntax:        "Syntax",
	TypeBuild:         "Build",
	TypeAssignment:    "Assignment",
	TypeInterface:     "Interface",
	TypeChecking:      "Checking",
	TypeData:          "Data",
	TypeFunction:      "Function",
	TypeSystem:        "System",
	TypeEnvironment:   "Environment",
}

// Types returns every defect type in code order.
func Types() []Type {
	types := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Valid reports whether t is a known type code.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Name returns the descriptive name of the type.
func (t Type) Name() string {
	return typeNames[t]
}

func (t Type) String() string {
	if !t.Valid() {
		return strconv.Itoa(int(t))
	}
	return fmt.Sprintf("%d: %s", int(t), t.Name())
}

// ParseType accepts a code ("20"), a name ("syntax") or the display form
// ("20: Syntax").
func ParseType(value string) (Type, error) {
	value = strings.TrimSpace(value)
	if code, _, found := strings.Cut(value, ":"); found {
		value = strings.TrimSpace(code)
	}
	if n, err := strconv.Atoi(value); err == nil {
		if t := Type(n); t.Valid() {
			return t, nil
		}
		return 0, ErrInvalidType
	}
	for t, name := range typeNames {
		if strings.EqualFold(name, value) {
			return t, nil
		}
	}
	return 0, ErrInvalidType
}

// Location points at the source line a defect was found on.
type Location struct {
	Filename string `json:"filename,omitempty"`
	Line     int    `json:"lineno,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// IsZero reports whether no location was recorded.
func (l Location) IsZero() bool {
	return l.Filename == "" && l.Line == 0 && l.Offset == 0
}

// Defect is an entry in the defect recording log.
type Defect struct {
	ID          string      `json:"uuid"`
	Number      string      `json:"number"`
	Description string      `json:"description"`
	Type        Type        `json:"type"`
	InjectPhase phase.Phase `json:"inject_phase"`
	RemovePhase phase.Phase `json:"remove_phase"`
	FixTime     int64       `json:"fix_time"`
	FixDefect   string      `json:"fix_defect"`
	Location    Location    `json:"location"`
	Checked     bool        `json:"checked"`
	Date        string      `json:"date"`
	CreatedAt   time.Time   `json:"created_at"`
}

// DateLayout is the calendar date format of Defect.Date.
const DateLayout = "2006-01-02"
