// Package gateway wires the webhook surface: it resolves the per-request
// service context, dispatches on the event-type discriminator, and drives
// the normalizer, challenge machine and forwarder. No protocol logic lives
// here.
package gateway

import (
	"net/http"
	"net/url"
	"strconv"

	"notifyr-gateway/internal/audit"
	"notifyr-gateway/internal/event"
	"notifyr-gateway/internal/forward"
	"notifyr-gateway/internal/otp"
	"notifyr-gateway/internal/telephony"
	"notifyr-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Backend report paths.
const (
	PathCallStatus   = "/twilio/call/incoming/status/"
	PathSmsStatus    = "/twilio/sms/incoming/status/"
	PathGatherResult = "/twilio/call/incoming/gather-result/"
)

// GatherRoute is where the provider posts collected digits.
const GatherRoute = "/twilio/gather/dtmf"

const gatherPrompt = "Please enter your one time passcode on the keypad."

type Handler struct {
	Svc       forward.ServiceContext
	Forwarder *forward.Forwarder

	// Verifier handles the contact-scoped verification path; nil when no
	// credential store is configured.
	Verifier otp.ContactVerifier
}

// HandleVoice answers the initial voice webhook. When the callback URL
// carries an OTP challenge, the caller is prompted to enter digits that the
// provider will post to the gather route with the challenge parameters
// replayed; otherwise a plain greeting is spoken.
func (h Handler) HandleVoice(c *gin.Context) {
	values, err := telephony.ParseWebhookForm(c.Request)
	if err != nil {
		badForm(c)
		return
	}

	var r telephony.VoiceResponse
	if values.Get("otp") != "" {
		action := GatherRoute
		if raw := c.Request.URL.RawQuery; raw != "" {
			action += "?" + raw
		}
		numDigits := 0
		if n, err := strconv.Atoi(values.Get("maxDigits")); err == nil {
			numDigits = n
		}
		r.Gather(action, numDigits, gatherPrompt)
	} else {
		r.Say("Hello World!")
	}
	xml, err := r.Render()
	respondXML(c, xml, err)
}

// HandleSms answers the SMS webhook with a messaging reply.
func (h Handler) HandleSms(c *gin.Context) {
	var r telephony.MessagingResponse
	r.Message("Hello World!")
	xml, err := r.Render()
	respondXML(c, xml, err)
}

// HandleStatus normalizes a lifecycle event and forwards it. An unknown
// event type is a logged no-op, not an error.
func (h Handler) HandleStatus(c *gin.Context) {
	log := logger.FromGin(c)

	values, err := telephony.ParseWebhookForm(c.Request)
	if err != nil {
		badForm(c)
		return
	}

	t, ok := event.ParseType(values.Get("type"))
	if !ok {
		log.Warn("unknown event type, dropping", "type", values.Get("type"))
		c.Status(http.StatusNoContent)
		return
	}

	var (
		path string
		kind audit.Kind
	)
	switch t {
	case event.TypeCall:
		path, kind = PathCallStatus, audit.KindCallStatus
	case event.TypeSms:
		path, kind = PathSmsStatus, audit.KindSmsStatus
	}

	ctx := logger.With(c.Request.Context(), log)
	res := h.Forwarder.Forward(ctx, h.Svc, kind, path, event.Normalize(t, values).Body(), correlation(values))
	if !res.Accepted {
		log.Warn("status report rejected", "path", path, "status", res.StatusCode, "message", res.Message)
	}
	c.Status(http.StatusNoContent)
}

// HandleGather runs one DTMF challenge round. The outcome report is
// forwarded before the voice response is written: the backend must know
// the attempt was consumed before the call continues or ends.
func (h Handler) HandleGather(c *gin.Context) {
	log := logger.FromGin(c)

	values, err := telephony.ParseWebhookForm(c.Request)
	if err != nil {
		badForm(c)
		return
	}

	ctx := logger.With(c.Request.Context(), log)
	out := otp.Evaluate(ctx, values, h.Verifier)

	res := h.Forwarder.Forward(ctx, h.Svc, audit.KindGatherResult, PathGatherResult, out.Report, correlation(values))
	if !res.Accepted {
		// The caller still gets spoken feedback; the backend's miss is
		// logged and audited, not surfaced mid-call.
		log.Warn("gather result rejected", "status", res.StatusCode, "message", res.Message)
	}

	var r telephony.VoiceResponse
	r.Say(out.SpokenMessage)
	if out.Hangup {
		r.Pause(1)
		r.Say(otp.SpokenGoodbye)
		r.Hangup()
	}
	xml, err := r.Render()
	respondXML(c, xml, err)
}

// correlation builds the query parameters that accompany every forwarded
// report, independent of the body.
func correlation(values url.Values) map[string]string {
	params := map[string]string{}
	if v := values.Get("subject_id"); v != "" {
		params["subject_id"] = v
	}
	tracking := values.Get("trackingId")
	if tracking == "" {
		tracking = values.Get("tracking_id")
	}
	if tracking != "" {
		params["trackingId"] = tracking
	}
	return params
}

func respondXML(c *gin.Context, xml string, err error) {
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "markup render failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}

func badForm(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
}
