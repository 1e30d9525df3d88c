package event

import (
	"encoding/json"
	"net/url"
)

// Type discriminates the two lifecycle event shapes the provider delivers.
// It is carried in the request context (?type=call / ?type=sms), never
// inferred from the payload shape.
type Type string

const (
	TypeCall Type = "call"
	TypeSms  Type = "sms"
)

// ParseType maps the raw discriminator onto the closed enum. Unknown values
// are a no-op for the caller, not an error.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeCall:
		return TypeCall, true
	case TypeSms:
		return TypeSms, true
	default:
		return "", false
	}
}

const CallStatusCompleted = "completed"

// CallEvent is the canonical record for a voice-call lifecycle event.
//
// RecordingSid and the geographic fields are always present in the JSON,
// explicitly null when the provider omitted them. The duration fields are
// present only when CallStatus is "completed", each null when absent
// upstream. Downstream consumers depend on the keys being there.
type CallEvent struct {
	CallSid           string
	RecordingSid      *string
	Direction         string
	Timestamp         string
	AccountSid        string
	CallStatus        string
	SequenceNumber    string
	ToCity            *string
	ToState           *string
	ToCountry         *string
	To                string
	From              string
	SubjectID         *string
	TrackingID        *string
	Duration          *string
	CallDuration      *string
	RecordingDuration *string
}

type callEventBase struct {
	CallSid        string  `json:"CallSid"`
	RecordingSid   *string `json:"RecordingSid"`
	Direction      string  `json:"Direction"`
	Timestamp      string  `json:"Timestamp"`
	AccountSid     string  `json:"AccountSid"`
	CallStatus     string  `json:"CallStatus"`
	SequenceNumber string  `json:"SequenceNumber"`
	ToCity         *string `json:"ToCity"`
	ToState        *string `json:"ToState"`
	ToCountry      *string `json:"ToCountry"`
	To             string  `json:"To"`
	From           string  `json:"From"`
	SubjectID      *string `json:"subject_id"`
	TrackingID     *string `json:"tracking_id"`
}

type callEventCompleted struct {
	callEventBase
	Duration          *string `json:"Duration"`
	CallDuration      *string `json:"CallDuration"`
	RecordingDuration *string `json:"RecordingDuration"`
}

func (e CallEvent) MarshalJSON() ([]byte, error) {
	base := callEventBase{
		CallSid:        e.CallSid,
		RecordingSid:   e.RecordingSid,
		Direction:      e.Direction,
		Timestamp:      e.Timestamp,
		AccountSid:     e.AccountSid,
		CallStatus:     e.CallStatus,
		SequenceNumber: e.SequenceNumber,
		ToCity:         e.ToCity,
		ToState:        e.ToState,
		ToCountry:      e.ToCountry,
		To:             e.To,
		From:           e.From,
		SubjectID:      e.SubjectID,
		TrackingID:     e.TrackingID,
	}
	if e.CallStatus == CallStatusCompleted {
		return json.Marshal(callEventCompleted{
			callEventBase:     base,
			Duration:          e.Duration,
			CallDuration:      e.CallDuration,
			RecordingDuration: e.RecordingDuration,
		})
	}
	return json.Marshal(base)
}

// SmsEvent is the canonical record for an SMS lifecycle event.
type SmsEvent struct {
	MessageSid    string  `json:"MessageSid"`
	AccountSid    string  `json:"AccountSid"`
	To            string  `json:"To"`
	From          string  `json:"From"`
	SmsSid        string  `json:"SmsSid"`
	SmsStatus     string  `json:"SmsStatus"`
	MessageStatus string  `json:"MessageStatus"`
	TrackingID    *string `json:"tracking_id"`
}

// Normalized is the tagged union over the two event shapes. Exactly one of
// Call / Sms is set, selected by Type.
type Normalized struct {
	Type Type
	Call *CallEvent
	Sms  *SmsEvent
}

// Body returns the value to serialize as the forwarded report body.
func (n Normalized) Body() any {
	switch n.Type {
	case TypeCall:
		return n.Call
	case TypeSms:
		return n.Sms
	default:
		return nil
	}
}

// Normalize maps a raw provider payload onto the canonical record for t.
func Normalize(t Type, values url.Values) Normalized {
	switch t {
	case TypeCall:
		e := NormalizeCall(values)
		return Normalized{Type: TypeCall, Call: &e}
	case TypeSms:
		e := NormalizeSms(values)
		return Normalized{Type: TypeSms, Sms: &e}
	default:
		return Normalized{}
	}
}

// NormalizeCall builds a CallEvent from the raw webhook form. subject_id and
// tracking_id are caller-supplied correlation values, passed through
// verbatim when present.
func NormalizeCall(values url.Values) CallEvent {
	e := CallEvent{
		CallSid:        values.Get("CallSid"),
		RecordingSid:   optional(values, "RecordingSid"),
		Direction:      values.Get("Direction"),
		Timestamp:      values.Get("Timestamp"),
		AccountSid:     values.Get("AccountSid"),
		CallStatus:     values.Get("CallStatus"),
		SequenceNumber: values.Get("SequenceNumber"),
		ToCity:         optional(values, "ToCity"),
		ToState:        optional(values, "ToState"),
		ToCountry:      optional(values, "ToCountry"),
		To:             values.Get("To"),
		From:           values.Get("From"),
		SubjectID:      optional(values, "subject_id"),
		TrackingID:     optional(values, "tracking_id"),
	}
	if e.CallStatus == CallStatusCompleted {
		e.Duration = optional(values, "Duration")
		e.CallDuration = optional(values, "CallDuration")
		e.RecordingDuration = optional(values, "RecordingDuration")
	}
	return e
}

// NormalizeSms builds an SmsEvent from the raw webhook form.
func NormalizeSms(values url.Values) SmsEvent {
	return SmsEvent{
		MessageSid:    values.Get("MessageSid"),
		AccountSid:    values.Get("AccountSid"),
		To:            values.Get("To"),
		From:          values.Get("From"),
		SmsSid:        values.Get("SmsSid"),
		SmsStatus:     values.Get("SmsStatus"),
		MessageStatus: values.Get("MessageStatus"),
		TrackingID:    optional(values, "tracking_id"),
	}
}

func optional(values url.Values, key string) *string {
	if !values.Has(key) {
		return nil
	}
	v := values.Get(key)
	if v == "" {
		return nil
	}
	return &v
}
