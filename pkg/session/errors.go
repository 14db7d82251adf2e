package session

import "errors"

// Status is the closed sum of status kinds the session layer produces,
// mapped 1-to-1 onto wire StatusCodes for server→client responses and onto
// internal kinds for application notifications (§7 of the status
// taxonomy). Each constant below other than StatusGood also has a sentinel
// error named with an "Err" prefix in place of "Status"/"StatusBad" (for
// example ErrNonceInvalid; StatusBadUnexpectedError's is ErrUnexpected),
// for use with errors.Is in Go handler code.
type Status int

const (
	StatusGood Status = iota
	StatusBadNonceInvalid
	StatusBadCertificateURIInvalid
	StatusBadUnexpectedError
	StatusBadIdentityTokenInvalid
	StatusBadIdentityTokenRejected
	StatusBadUserAccessDenied
	StatusBadUserSignatureInvalid
	StatusBadSessionIDExpired
	StatusBadSessionIDInvalid
	StatusBadSessionClosed
	StatusBadSessionNotActivated
	StatusBadSecureChannelIDInvalid
	StatusInvalidParameters
	StatusBadOutOfMemory
	StatusBadTooManySessions
)

// String names the status.
func (s Status) String() string {
	switch s {
	case StatusGood:
		return "Good"
	case StatusBadNonceInvalid:
		return "BadNonceInvalid"
	case StatusBadCertificateURIInvalid:
		return "BadCertificateUriInvalid"
	case StatusBadUnexpectedError:
		return "BadUnexpectedError"
	case StatusBadIdentityTokenInvalid:
		return "BadIdentityTokenInvalid"
	case StatusBadIdentityTokenRejected:
		return "BadIdentityTokenRejected"
	case StatusBadUserAccessDenied:
		return "BadUserAccessDenied"
	case StatusBadUserSignatureInvalid:
		return "BadUserSignatureInvalid"
	case StatusBadSessionIDExpired:
		return "BadSessionIdExpired"
	case StatusBadSessionIDInvalid:
		return "BadSessionIdInvalid"
	case StatusBadSessionClosed:
		return "BadSessionClosed"
	case StatusBadSessionNotActivated:
		return "BadSessionNotActivated"
	case StatusBadSecureChannelIDInvalid:
		return "BadSecureChannelIdInvalid"
	case StatusInvalidParameters:
		return "BadInvalidArgument"
	case StatusBadOutOfMemory:
		return "BadOutOfMemory"
	case StatusBadTooManySessions:
		return "BadTooManySessions"
	default:
		return "BadInternalError"
	}
}

// StatusError carries a Status alongside a human-readable reason, so
// internal failures can be logged with detail while the Status itself
// stays a closed, wire-mappable enum.
type StatusError struct {
	Status Status
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return e.Status.String()
	}
	return e.Status.String() + ": " + e.Reason
}

// Is supports errors.Is(err, ErrXxx) against the sentinel of the same
// Status, so callers can match on status without caring about the Reason.
func (e *StatusError) Is(target error) bool {
	se, ok := target.(*StatusError)
	return ok && se.Status == e.Status
}

func newStatusErr(s Status, reason string) error {
	return &StatusError{Status: s, Reason: reason}
}

// Sentinel errors for errors.Is matching; Reason is empty on these, so a
// StatusError built with a reason still matches via Is.
var (
	ErrNonceInvalid          = &StatusError{Status: StatusBadNonceInvalid}
	ErrCertificateURIInvalid = &StatusError{Status: StatusBadCertificateURIInvalid}
	ErrUnexpected            = &StatusError{Status: StatusBadUnexpectedError}
	ErrIdentityTokenInvalid  = &StatusError{Status: StatusBadIdentityTokenInvalid}
	ErrIdentityTokenRejected = &StatusError{Status: StatusBadIdentityTokenRejected}
	ErrUserAccessDenied      = &StatusError{Status: StatusBadUserAccessDenied}
	ErrUserSignatureInvalid  = &StatusError{Status: StatusBadUserSignatureInvalid}
	ErrSessionIDExpired      = &StatusError{Status: StatusBadSessionIDExpired}
	ErrSessionIDInvalid      = &StatusError{Status: StatusBadSessionIDInvalid}
	ErrSessionClosed         = &StatusError{Status: StatusBadSessionClosed}
	ErrSessionNotActivated   = &StatusError{Status: StatusBadSessionNotActivated}
	ErrSecureChannelIDInvalid = &StatusError{Status: StatusBadSecureChannelIDInvalid}
	ErrInvalidParameters     = &StatusError{Status: StatusInvalidParameters}
	ErrOutOfMemory           = &StatusError{Status: StatusBadOutOfMemory}
	ErrTooManySessions       = &StatusError{Status: StatusBadTooManySessions}
)

// Package-local plumbing errors not part of the wire status taxonomy.
var (
	ErrTableFull      = errors.New("session: table full")
	ErrNotFound       = errors.New("session: not found")
	ErrAlreadyClosing = errors.New("session: already closing")
)
