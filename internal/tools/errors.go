package tools

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTool is returned by Register for a name already taken.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrUnknownTool is returned by Execute for a name nobody registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is matched by every *ArgumentError.
	ErrInvalidArguments = errors.New("invalid arguments")
)

// ArgumentError explains why a call's arguments were rejected.
type ArgumentError struct {
	Tool   string
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument %q: %s", e.Tool, e.Param, e.Reason)
}

// Is reports whether target is ErrInvalidArguments.
func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArguments }
