package telephony

import (
	"net/http"
	"strings"

	"notifyr-gateway/internal/signing"
	"notifyr-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SignatureHeader carries the provider's HMAC over the delivered request.
const SignatureHeader = "X-Twilio-Signature"

// RequireValidSignature rejects webhook deliveries whose signature does not
// match the provider auth token. The signed content is the full callback URL
// plus the POST parameters, in the same scheme Sign produces. An empty token
// disables validation (local/dev).
func RequireValidSignature(authToken string) gin.HandlerFunc {
	if authToken == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		sig := c.GetHeader(SignatureHeader)
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing signature"})
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, vs := range c.Request.PostForm {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}

		if !signing.Validate(authToken, requestURL(c.Request), params, sig) {
			log.Warn("webhook signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

func requestURL(r *http.Request) string {
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil {
		scheme = "http"
	}
	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(r.Host)
	b.WriteString(r.URL.RequestURI())
	return b.String()
}
