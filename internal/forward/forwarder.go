// Package forward posts signed reports to the backend. One POST per call,
// no retries: the caller decides what a rejected report means, and a live
// phone call is usually waiting on the answer.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"notifyr-gateway/internal/audit"
	"notifyr-gateway/internal/signing"
	"notifyr-gateway/pkg/logger"
)

// SignatureHeader carries the gateway's HMAC over the target URL and query
// params, computed with the same scheme the provider uses so the backend
// can verify with stock tooling.
const SignatureHeader = "X-Notifyr-Signature"

const genericFailureMessage = "An unexpected error occurred"

// maxResponseBytes bounds how much of a backend response is read for the
// best-effort message extraction.
const maxResponseBytes = 64 << 10

// ServiceContext is the per-request view of the backend: resolved once per
// inbound webhook from static configuration, read-only, discarded at
// request end.
type ServiceContext struct {
	Mode          string
	BaseURL       string
	AuthToken     string
	SigningSecret string
}

// TokenProvider supplies the Authorization header value for outbound calls.
type TokenProvider interface {
	Bearer(ctx context.Context, now time.Time) string
}

// Result is the sole error signal of a forward attempt. No error crosses
// the Forwarder boundary.
type Result struct {
	Accepted   bool   `json:"accepted"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

type Forwarder struct {
	client *http.Client
	tokens TokenProvider
	audit  *audit.Service
	now    func() time.Time
}

// New builds a Forwarder. tokens and auditSvc may be nil; timeout bounds the
// single round trip (a hung backend otherwise stalls the voice response).
func New(timeout time.Duration, tokens TokenProvider, auditSvc *audit.Service) *Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		client: &http.Client{Timeout: timeout},
		tokens: tokens,
		audit:  auditSvc,
		now:    time.Now,
	}
}

type backendResponse struct {
	Message string `json:"message"`
}

// Forward signs and posts body to svc.BaseURL+path with query attached.
// Transport failures and non-2xx responses become Result values with the
// backend's message when one was readable, status 500 when no status is
// available.
func (f *Forwarder) Forward(ctx context.Context, svc ServiceContext, kind audit.Kind, path string, body any, query map[string]string) Result {
	log := logger.From(ctx)

	target := svc.BaseURL + path
	signature := signing.Sign(svc.SigningSecret, target, query)

	payload, err := json.Marshal(body)
	if err != nil {
		return f.record(ctx, kind, path, query, Result{StatusCode: http.StatusInternalServerError, Message: "could not encode report body"})
	}

	u, err := url.Parse(target)
	if err != nil {
		return f.record(ctx, kind, path, query, Result{StatusCode: http.StatusInternalServerError, Message: "invalid backend url"})
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	// The body is diagnostic-safe: reports never contain secrets.
	log.Debug("forwarding report", "path", path, "body", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return f.record(ctx, kind, path, query, Result{StatusCode: http.StatusInternalServerError, Message: genericFailureMessage})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)
	if f.tokens != nil {
		req.Header.Set("Authorization", f.tokens.Bearer(ctx, f.now()))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Warn("forward failed", "path", path, "err", err)
		return f.record(ctx, kind, path, query, Result{StatusCode: http.StatusInternalServerError, Message: genericFailureMessage})
	}
	defer resp.Body.Close()

	message := responseMessage(resp.Body)
	accepted := resp.StatusCode >= 200 && resp.StatusCode <= 299
	if !accepted {
		if message == "" {
			message = genericFailureMessage
		}
		log.Warn("forward rejected", "path", path, "status", resp.StatusCode, "message", message)
	} else {
		log.Info("forward accepted", "path", path, "status", resp.StatusCode)
	}

	return f.record(ctx, kind, path, query, Result{
		Accepted:   accepted,
		StatusCode: resp.StatusCode,
		Message:    message,
	})
}

func (f *Forwarder) record(ctx context.Context, kind audit.Kind, path string, query map[string]string, res Result) Result {
	if f.audit == nil {
		return res
	}
	err := f.audit.Record(ctx, audit.Event{
		Kind:       kind,
		Path:       path,
		StatusCode: res.StatusCode,
		Accepted:   res.Accepted,
		SubjectID:  query["subject_id"],
		Message:    res.Message,
	})
	if err != nil {
		logger.From(ctx).Warn("audit append failed", "err", err)
	}
	return res
}

func responseMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var out backendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	return out.Message
}
