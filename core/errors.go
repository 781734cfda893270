package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the wallet authentication flows
type Kind string

const (
	KindInvalidAddress     Kind = "invalid_address"
	KindChallengeNotFound  Kind = "challenge_not_found"
	KindChallengeExpired   Kind = "challenge_expired"
	KindMessageMismatch    Kind = "message_mismatch"
	KindSignatureInvalid   Kind = "signature_invalid"
	KindReplayDetected     Kind = "replay_detected"
	KindNotAuthorized      Kind = "not_authorized"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindAccountDisabled    Kind = "account_disabled"
	KindWalletConflict     Kind = "wallet_conflict"
)

var (
	ErrInvalidAddress     = &Error{Kind: KindInvalidAddress, Msg: "wallet address is malformed"}
	ErrChallengeNotFound  = &Error{Kind: KindChallengeNotFound, Msg: "no outstanding challenge, request a new one"}
	ErrChallengeExpired   = &Error{Kind: KindChallengeExpired, Msg: "challenge has expired, request a new one"}
	ErrMessageMismatch    = &Error{Kind: KindMessageMismatch, Msg: "signed message does not match the issued challenge"}
	ErrSignatureInvalid   = &Error{Kind: KindSignatureInvalid, Msg: "invalid signature"}
	ErrReplayDetected     = &Error{Kind: KindReplayDetected, Msg: "challenge has already been used"}
	ErrNotAuthorized      = &Error{Kind: KindNotAuthorized, Msg: "not authorized"}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Msg: "storage unavailable, try again"}
	ErrAccountDisabled    = &Error{Kind: KindAccountDisabled, Msg: "account is inactive"}
	ErrWalletConflict     = &Error{Kind: KindWalletConflict, Msg: "wallet is linked to another account"}
)

// Session token errors
var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidToken     = errors.New("invalid token")
)

// Error is a classified failure. Two errors match with errors.Is when their kinds are equal.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind only
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the same request
func (e *Error) Retryable() bool {
	return e.Kind == KindStorageUnavailable
}

// Errorf builds an error of the given kind with a formatted message
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new error of the given kind
func Wrap(kind Kind, cause error) *Error {
	base := ErrorForKind(kind)
	return &Error{Kind: kind, Msg: base.Msg, Err: cause}
}

// StorageUnavailable wraps a storage failure
func StorageUnavailable(cause error) *Error {
	return Wrap(KindStorageUnavailable, cause)
}

// KindOf returns the kind of err, or "" if err is not classified
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrorForKind returns the sentinel for a kind. Unknown kinds map to a generic error of that kind.
func ErrorForKind(kind Kind) *Error {
	switch kind {
	case KindInvalidAddress:
		return ErrInvalidAddress
	case KindChallengeNotFound:
		return ErrChallengeNotFound
	case KindChallengeExpired:
		return ErrChallengeExpired
	case KindMessageMismatch:
		return ErrMessageMismatch
	case KindSignatureInvalid:
		return ErrSignatureInvalid
	case KindReplayDetected:
		return ErrReplayDetected
	case KindNotAuthorized:
		return ErrNotAuthorized
	case KindStorageUnavailable:
		return ErrStorageUnavailable
	case KindAccountDisabled:
		return ErrAccountDisabled
	case KindWalletConflict:
		return ErrWalletConflict
	}
	return &Error{Kind: kind, Msg: string(kind)}
}
