package config

import "time"

const kbAPIURLVar = "KB_API_URL"

type RelayConfig interface {
	GetKnowledgeBaseURL() string
	GetRequestTimeout() time.Duration
}

type Relay struct{}

var _ RelayConfig = Relay{}

// GetKnowledgeBaseURL is the endpoint questions are relayed to.
func (Relay) GetKnowledgeBaseURL() string {
	return GetEnv(kbAPIURLVar, "")
}

// GetRequestTimeout bounds every outbound call, including token refreshes.
func (Relay) GetRequestTimeout() time.Duration {
	return 15 * time.Second
}
