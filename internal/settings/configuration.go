package settings

import (
	"fmt"
	"strings"
)

const (
	defaultRemoteHostConstant          = "git@github.com"
	defaultFetchAttemptsConstant       = 10
	defaultFetchBackoffSecondsConstant = 10

	remoteHostKeySuffixConstant          = "remote_host"
	fallbackOwnerKeySuffixConstant       = "fallback_owner"
	fetchAttemptsKeySuffixConstant       = "fetch_attempts"
	fetchBackoffSecondsKeySuffixConstant = "fetch_backoff_seconds"
	configurationKeyTemplateConstant     = "%s.%s"
)

// Configuration stores the build resolution options shared by every subpin command.
type Configuration struct {
	RemoteHost          string `mapstructure:"remote_host"`
	FallbackOwner       string `mapstructure:"fallback_owner"`
	FetchAttempts       int    `mapstructure:"fetch_attempts"`
	FetchBackoffSeconds int    `mapstructure:"fetch_backoff_seconds"`
}

// Sanitize normalizes configured values and applies defaults for unset fields.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.RemoteHost = strings.TrimSpace(sanitized.RemoteHost)
	if len(sanitized.RemoteHost) == 0 {
		sanitized.RemoteHost = defaultRemoteHostConstant
	}
	sanitized.FallbackOwner = strings.TrimSpace(sanitized.FallbackOwner)
	if sanitized.FetchAttempts <= 0 {
		sanitized.FetchAttempts = defaultFetchAttemptsConstant
	}
	if sanitized.FetchBackoffSeconds <= 0 {
		sanitized.FetchBackoffSeconds = defaultFetchBackoffSecondsConstant
	}
	return sanitized
}

// DefaultConfigurationValues exposes viper defaults under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKey(configurationKeyPrefix, remoteHostKeySuffixConstant):          defaultRemoteHostConstant,
		configurationKey(configurationKeyPrefix, fallbackOwnerKeySuffixConstant):       "",
		configurationKey(configurationKeyPrefix, fetchAttemptsKeySuffixConstant):       defaultFetchAttemptsConstant,
		configurationKey(configurationKeyPrefix, fetchBackoffSecondsKeySuffixConstant): defaultFetchBackoffSecondsConstant,
	}
}

func configurationKey(configurationKeyPrefix string, configurationKeySuffix string) string {
	return fmt.Sprintf(configurationKeyTemplateConstant, configurationKeyPrefix, configurationKeySuffix)
}
