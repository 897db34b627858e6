// Package gitcmd turns untyped host requests into typed repository
// operations and executes them against the go-git engine.
//
// Every operation follows a two-phase protocol: ParseArgs validates and
// extracts typed fields from the request's argument bag without touching
// filesystem or engine state; Run performs the mutation and may assume the
// parse succeeded. The dispatcher enforces the ordering and serializes
// execution per session.
package gitcmd

import (
	"context"

	gogit "github.com/go-git/go-git/v5"
	"github.com/rs/zerolog"

	"github.com/tsubomi-dev/gitbridge/internal/hostfs"
	"github.com/tsubomi-dev/gitbridge/internal/session"
)

// Recognized subjects. The set is closed: adding an operation means adding
// a case to the dispatcher's switch.
const (
	SubjectClone  = "clone"
	SubjectCommit = "commit"
)

// Command is one typed repository operation, created per request and
// discarded after one parse+run cycle. Implementations keep their validated
// arguments in their own struct rather than loose shared fields.
type Command interface {
	Subject() string

	// ParseArgs validates and extracts every field the operation needs.
	// It is pure: no filesystem or engine mutation.
	ParseArgs() error

	// Run performs the operation. It may assume ParseArgs succeeded, and
	// must leave the repository handle and filesystem in a well-defined
	// state on every exit path.
	Run(ctx context.Context, sess *session.Session) (any, error)
}

// Request is the host-facing request shape.
type Request struct {
	Subject string         `json:"subject"`
	Args    map[string]any `json:"args"`
}

// Response is the host-facing result shape. Error 0 means success.
type Response struct {
	Subject string `json:"subject"`
	Error   int    `json:"error"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Result  any    `json:"result,omitempty"`
}

// Dispatcher selects and executes commands against sessions. It owns the
// wiring (filesystem registry, shared remotes) commands need, and the
// single-writer discipline: one command at a time per session, in
// submission order.
type Dispatcher struct {
	filesystems *hostfs.Registry
	remotes     RemoteSource
	log         zerolog.Logger
}

// RemoteSource resolves a URL or name to a pre-ingested clone source.
type RemoteSource interface {
	SharedRemote(key string) (*gogit.Repository, bool)
}

// NewDispatcher wires a dispatcher.
func NewDispatcher(filesystems *hostfs.Registry, remotes RemoteSource, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{filesystems: filesystems, remotes: remotes, log: log}
}

// newCommand maps a subject to its concrete command. Exhaustive over the
// closed subject set.
func (d *Dispatcher) newCommand(subject string, args map[string]any) (Command, error) {
	switch subject {
	case SubjectClone:
		return NewClone(args, d.filesystems, d.remotes), nil
	case SubjectCommit:
		return NewCommit(args), nil
	default:
		return nil, Errorf(CodeUnknownSubject, "unrecognized subject %q", subject)
	}
}

// Dispatch runs one request against a session: parse, then run, then report.
// The session lock is held for the whole cycle since the engine is not
// assumed reentrant.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, req Request) Response {
	log := d.log.With().Str("session", sess.ID).Str("subject", req.Subject).Logger()

	sess.Lock()
	defer sess.Unlock()

	cmd, err := d.newCommand(req.Subject, req.Args)
	if err != nil {
		log.Warn().Err(err).Msg("command selection failed")
		return report(sess, req.Subject, nil, err)
	}

	// Parse-phase failures are terminal for the request; nothing has been
	// mutated, so no rollback is needed.
	if err := cmd.ParseArgs(); err != nil {
		log.Warn().Err(err).Msg("argument validation failed")
		return report(sess, req.Subject, nil, err)
	}

	result, err := cmd.Run(ctx, sess)
	if err != nil {
		log.Error().Err(err).Int("code", int(CodeOf(err))).Msg("command failed")
	} else {
		log.Info().Msg("command succeeded")
	}
	return report(sess, req.Subject, result, err)
}

// report builds the response and records history. The session lock is held
// by the caller.
func report(sess *session.Session, subject string, result any, err error) Response {
	code := CodeOf(err)
	resp := Response{
		Subject: subject,
		Error:   int(code),
		Status:  code.String(),
		Result:  result,
	}
	if err != nil {
		resp.Message = err.Error()
	}
	sess.Record(subject, resp.Message, resp.Error)
	return resp
}
