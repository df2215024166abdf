package orchestrator

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

var (
	ErrInvalidGraph = errors.New("invalid stage graph")
	ErrCycleFound   = errors.New("cycle detected")
)

// GraphError reports a stage graph rejected at construction.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return errors.WithStack(&GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)})
}

func cycleError(path []string) error {
	return errors.WithStack(&GraphError{Kind: ErrCycleFound, Msg: "cycle: " + strings.Join(path, " -> ")})
}

// StageError names the stage that failed. The chain stops at the first one.
type StageError struct {
	Stage string
	RunID string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// MarshalZerologObject adds the stage and run to a log event.
func (e *StageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage", e.Stage).
		Str("run_id", e.RunID).
		Str("type", "StageError")
}
