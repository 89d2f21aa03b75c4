package service

import (
	"errors"
	"fmt"
)

// ErrMissingConfiguration marks a relay that cannot deliver because a required setting is absent.
var ErrMissingConfiguration = errors.New("missing configuration")

// ConfigurationError names the absent setting.
type ConfigurationError struct {
	Key string
}

func (configurationError *ConfigurationError) Error() string {
	return configurationError.Key + " missing"
}

func (configurationError *ConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

func missingSetting(key string) error {
	return &ConfigurationError{Key: key}
}

// UpstreamError reports a failed delivery attempt. Message carries the provider's
// response body, or the transport error when no response arrived.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (upstreamError *UpstreamError) Error() string {
	if upstreamError.StatusCode > 0 {
		return fmt.Sprintf("%s API error (status %d): %s", upstreamError.Provider, upstreamError.StatusCode, upstreamError.Message)
	}
	return fmt.Sprintf("%s delivery failed: %s", upstreamError.Provider, upstreamError.Message)
}
