package config

import "time"

type SessionConfig interface {
	GetMaxSessions() int
	GetMaxSessionAge() time.Duration
	GetTitleLength() int
	GetSessionStorageKey() string
}

type Sessions struct{}

var _ SessionConfig = Sessions{}

func (Sessions) GetMaxSessions() int {
	return 50
}

func (Sessions) GetMaxSessionAge() time.Duration {
	return 30 * 24 * time.Hour // 30 days
}

func (Sessions) GetTitleLength() int {
	return 30
}

func (Sessions) GetSessionStorageKey() string {
	return "kb_chat_sessions"
}
