package derive

import (
	"errors"
	"fmt"
)

// ErrInvalidIterations is returned when the iteration count is zero.
var ErrInvalidIterations = errors.New("iteration count must be at least 1")

// Stage identifies the pipeline step that failed.
type Stage string

const (
	StageSeed   Stage = "seed"
	StageSalt   Stage = "salt"
	StageKey    Stage = "key"
	StageEncode Stage = "encode"
	StageRandom Stage = "random"
)

// GenerationError reports a failed derivation. No password is produced.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is, or wraps, a GenerationError.
func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func stageError(stage Stage, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}
