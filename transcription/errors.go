package transcription

import (
	"errors"
	"fmt"
)

// ErrUsage reports an invocation without an audio file argument.
var ErrUsage = errors.New("missing audio file argument")

type (
	InputNotFoundError struct {
		Path string
		Err  error
	}

	// EngineError wraps any failure raised while loading the model or
	// producing segments.
	EngineError struct {
		Err error
	}
)

func (e *InputNotFoundError) Error() string {
	return fmt.Sprintf("File not found: %s", e.Path)
}

func (e *InputNotFoundError) Unwrap() error { return e.Err }

func (e *EngineError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
