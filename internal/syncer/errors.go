package syncer

import "fmt"

// Pipeline step names used in StepError and in surfaced status messages.
const (
	stepRender    = "render"
	stepUpload    = "upload"
	stepUpsert    = "upsert"
	stepEmbed     = "embed"
	stepContent   = "content"
	stepRelations = "relations"
)

// StepError tags a pipeline failure with the step that produced it, so a
// surfaced status reads "<step>: <cause>".
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
