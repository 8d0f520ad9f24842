package defect

import "errors"

var (
	// ErrDefectNotFound indicates the defect doesn't exist.
	ErrDefectNotFound = errors.New("defect not found")
	// ErrInvalidType indicates an unknown defect type code.
	ErrInvalidType = errors.New("invalid defect type")
	// ErrInvalidInput indicates invalid defect input.
	ErrInvalidInput = errors.New("invalid defect input")
)
