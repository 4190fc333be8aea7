// Package errs defines the error taxonomy shared by every transform.
//
// Structure and hoisting failures are fatal to the file being transformed and
// are meant to be surfaced to the caller unchanged. Configuration failures are
// fatal at plugin initialization.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructure matches every error caused by an input file that does not
// have the mandated shape.
var ErrStructure = errors.New("invalid story file structure")

// StructureError reports an input file that does not match a mandated shape.
type StructureError struct {
	File   string
	Reason string
}

func (e *StructureError) Error() string {
	if e.File == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Is reports whether target is ErrStructure.
func (e *StructureError) Is(target error) bool {
	return target == ErrStructure
}

// Structuref builds a StructureError with a formatted reason.
func Structuref(file, format string, args ...any) error {
	return &StructureError{File: file, Reason: fmt.Sprintf(format, args...)}
}

// MissingTemplateError reports a component file without a <template> block.
type MissingTemplateError struct {
	File string
}

func (e *MissingTemplateError) Error() string {
	if e.File == "" {
		return "no template found in SFC"
	}
	return fmt.Sprintf("%s: no template found in SFC", e.File)
}

// Is reports whether target is ErrStructure.
func (e *MissingTemplateError) Is(target error) bool {
	return target == ErrStructure
}

// NonHoistableBindingError reports a binding referenced from story args that
// is not a compile-time-constant top-level declaration.
type NonHoistableBindingError struct {
	Binding string
}

func (e *NonHoistableBindingError) Error() string {
	return fmt.Sprintf("binding %q is not primitive and cannot be used as a story arg", e.Binding)
}

// ConfigurationError reports a plugin configuration that cannot be resolved.
type ConfigurationError struct {
	Reason   string
	Searched []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Searched) == 0 {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s (searched: %s)", e.Reason, strings.Join(e.Searched, ", "))
}

// UnsupportedError reports input outside the narrow set of constructs the
// built-in compiler understands.
type UnsupportedError struct {
	Construct string
	Offset    int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct %s at offset %d", e.Construct, e.Offset)
}
