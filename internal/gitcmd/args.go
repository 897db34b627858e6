package gitcmd

import (
	"errors"
	"fmt"
	"strings"
)

// Args is the untyped argument bag of a host request, an immutable
// snapshot of already-decoded JSON. Extraction is lookup-then-typed-decode:
// each accessor records a per-field failure instead of aborting, so a parse
// reports every bad field at once.
type Args struct {
	values map[string]any
	errs   []*Error
}

// NewArgs wraps a host argument bag. A nil map is treated as empty.
func NewArgs(values map[string]any) *Args {
	return &Args{values: values}
}

// String extracts a required string value. Absence and a wrong dynamic type
// are recorded as distinct failures.
func (a *Args) String(key string) string {
	v, ok := a.values[key]
	if !ok {
		a.errs = append(a.errs, argError(CodeMissingArgument, key, nil))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.errs = append(a.errs, argError(CodeInvalidArgumentType, key,
			fmt.Errorf("expected string, got %T", v)))
		return ""
	}
	return s
}

// NonEmptyString extracts a required string that must not be empty.
func (a *Args) NonEmptyString(key string) string {
	before := len(a.errs)
	s := a.String(key)
	if len(a.errs) == before && s == "" {
		a.errs = append(a.errs, argError(CodeMissingArgument, key,
			errors.New("empty value")))
	}
	return s
}

// OptionalString extracts a string if present. Absence is not a failure;
// a present value of the wrong type still is.
func (a *Args) OptionalString(key string) string {
	v, ok := a.values[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		a.errs = append(a.errs, argError(CodeInvalidArgumentType, key,
			fmt.Errorf("expected string, got %T", v)))
		return ""
	}
	return s
}

// Err reports the accumulated extraction failure, nil if every lookup
// succeeded. The first failure's code is the overall code; the message
// enumerates all failed fields.
func (a *Args) Err() error {
	if len(a.errs) == 0 {
		return nil
	}
	if len(a.errs) == 1 {
		return a.errs[0]
	}
	parts := make([]string, len(a.errs))
	for i, e := range a.errs {
		parts[i] = e.Error()
	}
	return &Error{
		Code: a.errs[0].Code,
		Err:  errors.New(strings.Join(parts, "; ")),
	}
}

// FieldErrors exposes the individual recorded failures.
func (a *Args) FieldErrors() []*Error { return a.errs }
