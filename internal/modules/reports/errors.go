package reports

import (
	"errors"
	"fmt"

	"github.com/yungbote/linguapath-backend/internal/platform/apierr"
)

var ErrNotFound = errors.New("not found")

const (
	CodeProgramNotFound    = "program_not_found"
	CodeStageNotFound      = "stage_not_found"
	CodeUnitNotFound       = "unit_not_found"
	CodeSubconceptNotFound = "subconcept_not_found"
)

func notFound(code, kind, id string) error {
	return apierr.NotFound(code, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound))
}

func ProgramNotFound(id string) error {
	return notFound(CodeProgramNotFound, "program", id)
}

func StageNotFound(id string) error {
	return notFound(CodeStageNotFound, "stage", id)
}

func UnitNotFound(id string) error {
	return notFound(CodeUnitNotFound, "unit", id)
}

func SubconceptNotFound(id string) error {
	return notFound(CodeSubconceptNotFound, "subconcept", id)
}
