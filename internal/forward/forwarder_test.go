package forward

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notifyr-gateway/internal/audit"
	"notifyr-gateway/internal/signing"
)

type staticTokens struct{ value string }

func (s staticTokens) Bearer(context.Context, time.Time) string { return s.value }

func svcFor(baseURL string) ServiceContext {
	return ServiceContext{Mode: "test", BaseURL: baseURL, SigningSecret: "sign-secret"}
}

func TestForwardSuccess(t *testing.T) {
	var got struct {
		path      string
		query     map[string]string
		signature string
		auth      string
		body      map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.query = map[string]string{}
		for k := range r.URL.Query() {
			got.query[k] = r.URL.Query().Get(k)
		}
		got.signature = r.Header.Get(SignatureHeader)
		got.auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"recorded"}`))
	}))
	defer srv.Close()

	repo := audit.NewMemoryRepo()
	f := New(time.Second, staticTokens{"Bearer abc"}, audit.NewService(repo))

	query := map[string]string{"subject_id": "subj-1", "trackingId": "trk-1"}
	res := f.Forward(context.Background(), svcFor(srv.URL), audit.KindGatherResult,
		"/twilio/call/incoming/gather-result/", map[string]string{"state": "dtmf-result"}, query)

	if !res.Accepted || res.StatusCode != 200 {
		t.Fatalf("expected accepted result, got %+v", res)
	}
	if res.Message != "recorded" {
		t.Fatalf("expected backend message, got %q", res.Message)
	}
	if got.path != "/twilio/call/incoming/gather-result/" {
		t.Fatalf("unexpected path %q", got.path)
	}
	if got.query["subject_id"] != "subj-1" || got.query["trackingId"] != "trk-1" {
		t.Fatalf("expected correlation query params, got %v", got.query)
	}
	if got.auth != "Bearer abc" {
		t.Fatalf("expected bearer header, got %q", got.auth)
	}
	if got.body["state"] != "dtmf-result" {
		t.Fatalf("expected report body, got %v", got.body)
	}

	want := signing.Sign("sign-secret", srv.URL+"/twilio/call/incoming/gather-result/", query)
	if got.signature != want {
		t.Fatalf("expected signature %q, got %q", want, got.signature)
	}

	events := repo.Events()
	if len(events) != 1 || !events[0].Accepted || events[0].SubjectID != "subj-1" {
		t.Fatalf("expected audit record, got %+v", events)
	}
}

func TestForwardNon2xxExtractsMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"unknown subject"}`))
	}))
	defer srv.Close()

	f := New(time.Second, nil, nil)
	res := f.Forward(context.Background(), svcFor(srv.URL), audit.KindCallStatus, "/twilio/call/incoming/status/", nil, nil)
	if res.Accepted {
		t.Fatalf("expected rejection")
	}
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.StatusCode)
	}
	if res.Message != "unknown subject" {
		t.Fatalf("expected backend message, got %q", res.Message)
	}
}

func TestForwardNon2xxWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(time.Second, nil, nil)
	res := f.Forward(context.Background(), svcFor(srv.URL), audit.KindCallStatus, "/p", nil, nil)
	if res.Accepted || res.Message == "" {
		t.Fatalf("expected generic failure message, got %+v", res)
	}
}

func TestForwardTransportFailure(t *testing.T) {
	repo := audit.NewMemoryRepo()
	f := New(time.Second, nil, audit.NewService(repo))

	// Nothing listens here.
	res := f.Forward(context.Background(), svcFor("http://127.0.0.1:1"), audit.KindSmsStatus, "/twilio/sms/incoming/status/", nil, nil)
	if res.Accepted {
		t.Fatalf("expected failure")
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", res.StatusCode)
	}

	events := repo.Events()
	if len(events) != 1 || events[0].Accepted {
		t.Fatalf("expected failed attempt in audit, got %+v", events)
	}
}

func TestForwardDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(time.Second, nil, nil)
	_ = f.Forward(context.Background(), svcFor(srv.URL), audit.KindCallStatus, "/p", nil, nil)
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}
