package repository

import "errors"

// Sentinel errors the orchestrator checks for per §7: input/ownership
// errors return immediately from runEvaluation with no persistence.
var (
	ErrCvNotFound  = errors.New("repository: cv not found")
	ErrCvNotOwned  = errors.New("repository: cv not owned by requester")
	ErrCvNotParsed = errors.New("repository: cv is not parsed")
	ErrJdNotFound  = errors.New("repository: jd not found")
	ErrJdNotOwned  = errors.New("repository: jd not owned by requester")

	ErrEvaluationNotFound = errors.New("repository: evaluation not found")
)
