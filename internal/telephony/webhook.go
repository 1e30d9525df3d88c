package telephony

import (
	"net/http"
	"net/url"
)

// ParseWebhookForm extracts the provider webhook parameters. Twilio delivers
// lifecycle fields as application/x-www-form-urlencoded POST bodies; the
// gateway-specific correlation fields (otp, return_url, type, ...) arrive on
// the query string of the configured callback URL. Both are merged here,
// with body values taking precedence.
func ParseWebhookForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	merged := url.Values{}
	for k, vs := range r.URL.Query() {
		merged[k] = vs
	}
	for k, vs := range r.PostForm {
		merged[k] = vs
	}
	return merged, nil
}
