package vfs

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures by the stage that produced them.
type Kind string

const (
	KindConfig    Kind = "config"
	KindChallenge Kind = "challenge"
	KindPreLogin  Kind = "pre_login"
	KindLogin     Kind = "login"
	KindCheck     Kind = "check"
	KindNotify    Kind = "notify"
)

// Fatal reports whether a failure of this kind aborts the run. Check and
// notify failures degrade instead: a failed check means "nothing found",
// a failed channel leaves the remaining channels attempted.
func (k Kind) Fatal() bool {
	switch k {
	case KindCheck, KindNotify:
		return false
	}
	return true
}

// Error is a workflow failure tagged with the stage that produced it.
type Error struct {
	Kind Kind
	Err  error
	// Remediation tells the user what to do about it, when there is
	// something they can do.
	Remediation string
}

func (e *Error) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s: %s. %s", e.Kind, e.Err.Error(), e.Remediation)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
