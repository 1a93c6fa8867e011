package auth

import (
	"net/url"

	"github.com/go-magic-auth/internal/domain"
)

// ErrorCode is a recoverable, user-facing failure. These are values, not errors:
// callers re-display the form or offer to resend the code.
type ErrorCode string

const (
	CodeEmailEmpty   ErrorCode = "EMAIL_EMPTY"
	CodeEmailInvalid ErrorCode = "EMAIL_INVALID"
	CodeNameEmpty    ErrorCode = "NAME_EMPTY"
	CodeNameTooLong  ErrorCode = "NAME_TOO_LONG"
	CodeInvalidCode  ErrorCode = "invalidCode"
	CodeCodeExpired  ErrorCode = "codeExpired"
)

// Redirect targets.
const (
	PathHome       = "/"
	PathVerify     = "/verify"
	PathOnboarding = "/onboarding"
)

// Failure is the structured {success:false, error:<code>} result.
type Failure struct {
	Code ErrorCode
}

// Redirect tells the caller where to send the client next. Session, when set,
// is the credential the caller must attach to the response.
type Redirect struct {
	Path    string
	Query   url.Values
	Session *domain.Session
}

// Location renders Path with its query string.
func (r *Redirect) Location() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Outcome is exactly one of Failure or Redirect. DeliveryErr reports a failed
// out-of-band dispatch that did not undo the redirect.
type Outcome struct {
	Failure     *Failure
	Redirect    *Redirect
	DeliveryErr error
}

// OK reports whether the intent succeeded.
func (o *Outcome) OK() bool { return o.Failure == nil }

func fail(code ErrorCode) *Outcome {
	return &Outcome{Failure: &Failure{Code: code}}
}

func redirect(path string, query url.Values, sess *domain.Session) *Outcome {
	return &Outcome{Redirect: &Redirect{Path: path, Query: query, Session: sess}}
}
