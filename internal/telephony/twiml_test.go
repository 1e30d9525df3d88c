package telephony

import (
	"strings"
	"testing"
)

func TestVoiceResponseSay(t *testing.T) {
	var r VoiceResponse
	r.Say("You entered the valid digits.")
	xml, err := r.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "<Say>You entered the valid digits.</Say>") {
		t.Fatalf("expected Say verb in %s", xml)
	}
	if !strings.Contains(xml, "<Response>") {
		t.Fatalf("expected Response root in %s", xml)
	}
}

func TestVoiceResponseHangupSequence(t *testing.T) {
	var r VoiceResponse
	r.Say("The digits you entered are incorrect. Please try again later.")
	r.Pause(1)
	r.Say("Goodbye!")
	r.Hangup()

	xml, err := r.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{`<Pause length="1"`, "<Hangup>", "Goodbye!"} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in %s", want, xml)
		}
	}
	// Failure utterance and hangup instruction must coexist.
	if !strings.Contains(xml, "incorrect") {
		t.Fatalf("expected failure utterance in %s", xml)
	}
	if strings.Index(xml, "<Say>") > strings.Index(xml, "<Hangup>") {
		t.Fatalf("expected spoken feedback before hangup: %s", xml)
	}
}

func TestVoiceResponseGather(t *testing.T) {
	var r VoiceResponse
	r.Gather("/twilio/gather/dtmf", 4, "Please enter your passcode.")
	xml, err := r.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{`action="/twilio/gather/dtmf"`, `numDigits="4"`, `method="POST"`, "passcode"} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in %s", want, xml)
		}
	}
}

func TestMessagingResponse(t *testing.T) {
	var r MessagingResponse
	r.Message("Hello World!")
	xml, err := r.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "<Message>Hello World!</Message>") {
		t.Fatalf("expected Message verb in %s", xml)
	}
}
