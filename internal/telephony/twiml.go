package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builders for the verbs this gateway emits. No provider SDK
// dependency; the contract is a sequence of speak/pause/gather/hangup
// instructions rendered as XML at the boundary.

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlGather struct {
	XMLName   xml.Name  `xml:"Gather"`
	Action    string    `xml:"action,attr,omitempty"`
	Method    string    `xml:"method,attr,omitempty"`
	NumDigits int       `xml:"numDigits,attr,omitempty"`
	Say       *twimlSay `xml:"Say,omitempty"`
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Message"`
	Text    string   `xml:",chardata"`
}

type twimlDocument struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

// VoiceResponse accumulates voice instructions in order.
type VoiceResponse struct {
	verbs []any
}

func (r *VoiceResponse) Say(text string) *VoiceResponse {
	r.verbs = append(r.verbs, twimlSay{Text: text})
	return r
}

func (r *VoiceResponse) Pause(seconds int) *VoiceResponse {
	r.verbs = append(r.verbs, twimlPause{Length: seconds})
	return r
}

func (r *VoiceResponse) Hangup() *VoiceResponse {
	r.verbs = append(r.verbs, twimlHangup{})
	return r
}

// Gather asks the provider to collect numDigits keypad digits and POST them
// to action, speaking prompt first when non-empty.
func (r *VoiceResponse) Gather(action string, numDigits int, prompt string) *VoiceResponse {
	g := twimlGather{Action: action, Method: "POST", NumDigits: numDigits}
	if prompt != "" {
		g.Say = &twimlSay{Text: prompt}
	}
	r.verbs = append(r.verbs, g)
	return r
}

func (r *VoiceResponse) Render() (string, error) {
	return render(r.verbs)
}

// MessagingResponse accumulates SMS reply instructions.
type MessagingResponse struct {
	verbs []any
}

func (r *MessagingResponse) Message(text string) *MessagingResponse {
	r.verbs = append(r.verbs, twimlMessage{Text: text})
	return r
}

func (r *MessagingResponse) Render() (string, error) {
	return render(r.verbs)
}

func render(verbs []any) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(twimlDocument{Verbs: verbs}); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
