package gitcmd

import (
	"errors"
	"fmt"
)

// Code identifies a command failure class. The host maps codes to
// remediation messages, so codes are never collapsed into a generic
// "failed" signal.
type Code int

const (
	CodeOK Code = iota
	CodeMissingArgument
	CodeInvalidArgumentType
	CodeFilesystemResolution
	CodeMountFailure
	CodeEngineClone
	CodeNoOpenRepository
	CodeEngineCommit
	CodeHandleAlreadyOpen
	CodeUnknownSubject
	CodeInternal
)

// String returns the stable name of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeMissingArgument:
		return "missing_argument"
	case CodeInvalidArgumentType:
		return "invalid_argument_type"
	case CodeFilesystemResolution:
		return "filesystem_resolution_failure"
	case CodeMountFailure:
		return "mount_failure"
	case CodeEngineClone:
		return "engine_clone_failure"
	case CodeNoOpenRepository:
		return "no_open_repository"
	case CodeEngineCommit:
		return "engine_commit_failure"
	case CodeHandleAlreadyOpen:
		return "handle_already_open"
	case CodeUnknownSubject:
		return "unknown_subject"
	case CodeInternal:
		return "internal_error"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error is a coded command failure. Key names the offending argument for
// argument-level failures and is empty otherwise.
type Error struct {
	Code Code
	Key  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("%s: argument %q: %v", e.Code, e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%s: argument %q", e.Code, e.Key)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a coded error wrapping cause (cause may be nil).
func NewError(code Code, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

// Errorf builds a coded error from a format string.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Err: fmt.Errorf(format, args...)}
}

func argError(code Code, key string, cause error) *Error {
	return &Error{Code: code, Key: key, Err: cause}
}

// CodeOf extracts the failure code from err. It returns CodeOK for nil and
// the innermost coded error otherwise. Errors produced by this package are
// always coded; an uncoded error indicates a programming slip and maps to
// CodeInternal so the host still sees a non-zero code.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}
