// Package otp implements the DTMF challenge protocol: a caller is prompted
// for a one-time passcode on a live call, the provider posts the entered
// digits back, and the outcome is reported to the backend before any voice
// instruction is returned.
//
// The protocol is stateless across invocations. Every round trip carries its
// full context in the request parameters the provider replays (otp,
// return_url, subject_id, request_id, contact, Digits, CallSid, To, hangup).
package otp

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrMissingOTP       = errors.New("otp: missing otp parameter")
	ErrMissingReturnURL = errors.New("otp: missing return_url parameter")
	ErrBadMaxDigits     = errors.New("otp: max_digits is not an integer")
	ErrMissingDigits    = errors.New("otp: missing digits")
	ErrLengthMismatch   = errors.New("otp: digits length does not match max_digits")
	ErrCodeMismatch     = errors.New("otp: digits do not match the expected code")
)

// Spoken messages returned to the caller over the voice channel.
const (
	SpokenProcessingError = "There was an error processing your request. Please try again later."
	SpokenInvalidDigits   = "The digits you entered are incorrect. Please try again later."
	SpokenValidDigits     = "You entered the valid digits."
	SpokenGoodbye         = "Goodbye!"
)

const reportValidMessage = "User entered the valid OTP"

// ReportState tags the gather-result payload for the backend.
const ReportState = "dtmf-result"

// ContactVerifier checks entered digits against a contact-scoped stored
// code. The backend semantics of contact codes are external; the gateway
// only needs a yes/no.
type ContactVerifier interface {
	VerifyContactCode(ctx context.Context, contactID, digits string) error
}

// ChallengeRequest is the parsed, validated challenge context for one
// invocation. Constructed once by ParseChallenge and never mutated.
type ChallengeRequest struct {
	ExpectedCode  string
	EnteredDigits string
	HasDigits     bool
	MaxDigits     *int
	SubjectID     string
	RequestID     string
	ContactID     string
	CallSid       string
	CalledNumber  string
	Direction     string
	Hangup        bool
	ReturnURL     string
}

// ParseChallenge extracts the challenge context from the inbound form.
//
// On failure the returned request still carries the correlation fields and
// the hangup flag: a malformed request must still produce a report and,
// when asked, a hangup instruction.
func ParseChallenge(values url.Values) (ChallengeRequest, error) {
	req := ChallengeRequest{
		SubjectID:     values.Get("subject_id"),
		RequestID:     values.Get("request_id"),
		ContactID:     values.Get("contact"),
		CallSid:       values.Get("CallSid"),
		CalledNumber:  values.Get("To"),
		Direction:     values.Get("Direction"),
		Hangup:        flag(values.Get("hangup")),
		EnteredDigits: values.Get("Digits"),
		HasDigits:     values.Has("Digits"),
	}

	code := strings.TrimSpace(values.Get("otp"))
	if code == "" {
		return req, ErrMissingOTP
	}
	req.ExpectedCode = code

	req.ReturnURL = values.Get("return_url")
	if req.ReturnURL == "" {
		return req, ErrMissingReturnURL
	}

	if raw := maxDigitsParam(values); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, ErrBadMaxDigits
		}
		req.MaxDigits = &n
	}
	return req, nil
}

// maxDigitsParam accepts both spellings the provider round trip has used.
func maxDigitsParam(values url.Values) string {
	if v := values.Get("maxDigits"); v != "" {
		return v
	}
	return values.Get("max_digits")
}

func flag(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false":
		return false
	default:
		return true
	}
}

// VerifyDigits applies the pure digit-match verification used when no
// contact id is present. The length check runs before the value comparison.
func (r ChallengeRequest) VerifyDigits() error {
	if !r.HasDigits || r.EnteredDigits == "" {
		return ErrMissingDigits
	}
	if r.MaxDigits != nil && len(r.EnteredDigits) != *r.MaxDigits {
		return ErrLengthMismatch
	}
	if r.EnteredDigits != r.ExpectedCode {
		return ErrCodeMismatch
	}
	return nil
}

// Report is the gather-result payload forwarded to the backend.
type Report struct {
	SubjectID string     `json:"subject_id"`
	RequestID string     `json:"request_id"`
	CallSid   string     `json:"CallSid"`
	To        string     `json:"To"`
	State     string     `json:"state"`
	Data      ReportData `json:"data"`
}

type ReportData struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

// Outcome is the immutable result of one challenge evaluation.
type Outcome struct {
	Verified      bool
	Message       string
	SpokenMessage string
	Hangup        bool
	Report        Report
}

func (r ChallengeRequest) outcome(verified bool, message, spoken string) Outcome {
	return Outcome{
		Verified:      verified,
		Message:       message,
		SpokenMessage: spoken,
		Hangup:        r.Hangup,
		Report: Report{
			SubjectID: r.SubjectID,
			RequestID: r.RequestID,
			CallSid:   r.CallSid,
			To:        r.CalledNumber,
			State:     ReportState,
			Data:      ReportData{Message: message, Verified: verified},
		},
	}
}

// Evaluate runs one full challenge round: deconstruct the raw parameters,
// verify the entered digits, and build the outcome. A deconstruction
// failure short-circuits verification. Verification failures are values,
// not errors: the caller always gets an outcome to report and speak.
func Evaluate(ctx context.Context, values url.Values, verifier ContactVerifier) Outcome {
	req, err := ParseChallenge(values)
	if err != nil {
		return req.outcome(false, err.Error(), SpokenProcessingError)
	}

	if req.ContactID != "" {
		if verifier == nil {
			return req.outcome(false, "contact verification is not configured", SpokenProcessingError)
		}
		if err := verifier.VerifyContactCode(ctx, req.ContactID, req.EnteredDigits); err != nil {
			return req.outcome(false, err.Error(), SpokenInvalidDigits)
		}
		return req.outcome(true, reportValidMessage, SpokenValidDigits)
	}

	if err := req.VerifyDigits(); err != nil {
		return req.outcome(false, err.Error(), SpokenInvalidDigits)
	}
	return req.outcome(true, reportValidMessage, SpokenValidDigits)
}
