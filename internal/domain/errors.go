package domain

import (
	"errors"
	"strings"
)

var (
	ErrInput             = errors.New("invalid input")
	ErrJobNotFound       = errors.New("job not found")
	ErrArtifactNotReady  = errors.New("artifact not ready")
	ErrGenerationFailure = errors.New("generation failed")
	ErrArtifactExpired   = errors.New("artifact expired")
	ErrLocationNotFound  = errors.New("location not found")
)

// InputError lists every structural problem found in a request.
type InputError struct {
	Problems []string
}

func NewInputError(problems ...string) *InputError {
	return &InputError{Problems: problems}
}

func (e *InputError) Error() string {
	if len(e.Problems) == 0 {
		return ErrInput.Error()
	}
	return ErrInput.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *InputError) Unwrap() error {
	return ErrInput
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInput)
}

func IsJobNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound)
}

func IsArtifactNotReady(err error) bool {
	return errors.Is(err, ErrArtifactNotReady)
}

func IsLocationNotFound(err error) bool {
	return errors.Is(err, ErrLocationNotFound)
}
