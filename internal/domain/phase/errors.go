package phase

import "errors"

var (
	// ErrUnknownPhase indicates a phase name outside the six PSP phases.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrInvalidInput indicates invalid ledger input.
	ErrInvalidInput = errors.New("invalid phase input")
)
