package defect

import (
	"fmt"

	"github.com/rpggio/psptrack/internal/domain/phase"
)

// ValidateCreateInput validates the fields of a new defect.
func ValidateCreateInput(req CreateRequest) error {
	if req.Type != 0 && !req.Type.Valid() {
		return fmt.Errorf("%w: type %d", ErrInvalidInput, int(req.Type))
	}
	if err := validatePhase(req.InjectPhase); err != nil {
		return err
	}
	if err := validatePhase(req.RemovePhase); err != nil {
		return err
	}
	if req.FixTime < 0 {
		return fmt.Errorf("%w: negative fix time", ErrInvalidInput)
	}
	if req.Location.Line < 0 || req.Location.Offset < 0 {
		return fmt.Errorf("%w: negative source position", ErrInvalidInput)
	}
	return nil
}

func validatePhase(p phase.Phase) error {
	if p == phase.None || p.Valid() {
		return nil
	}
	return fmt.Errorf("%w: phase %q", ErrInvalidInput, p)
}
