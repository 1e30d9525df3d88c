package gateway

import (
	"notifyr-gateway/internal/config"
	"notifyr-gateway/internal/forward"
)

// NewServiceContext resolves the per-request backend view from static
// configuration. It is rebuilt for every inbound webhook and never shared
// or mutated; the only failure mode is a mode with no base URL, which
// config validation already treats as fatal at startup.
func NewServiceContext(cfg config.Config) (forward.ServiceContext, error) {
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return forward.ServiceContext{}, err
	}
	return forward.ServiceContext{
		Mode:          cfg.Mode,
		BaseURL:       baseURL,
		AuthToken:     cfg.Backend.AuthKey,
		SigningSecret: cfg.Twilio.AuthToken,
	}, nil
}
