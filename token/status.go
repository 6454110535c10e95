package token

import (
	"context"
	"fmt"
	"time"
)

type StatusKind string

const (
	StatusNone         StatusKind = "none"
	StatusExpired      StatusKind = "expired"
	StatusExpiringSoon StatusKind = "expiring_soon"
	StatusValid        StatusKind = "valid"
)

// Status is a read-only report on the persisted OAuth credential.
type Status struct {
	Status         StatusKind   `json:"status"`
	Message        string       `json:"message"`
	ExpiresAt      *int64       `json:"expires_at,omitempty"`
	HumanRemaining string       `json:"human_remaining,omitempty"`
	Claims         *TokenClaims `json:"claims,omitempty"`
}

// Status derives the credential state from the persisted expiry and the
// current time. It never refreshes and never mutates state.
func (c *Cache) Status(ctx context.Context) (Status, error) {
	cred, err := c.repo.LoadCredential(ctx)
	if err != nil {
		return Status{}, err
	}
	return statusOf(cred, c.nowFunc()), nil
}

func statusOf(cred Credential, now time.Time) Status {
	if cred.ExpiresAt == 0 {
		return Status{Status: StatusNone, Message: "No token cached"}
	}

	expiresAt := cred.ExpiresAt
	remaining := cred.Remaining(now)
	s := Status{ExpiresAt: &expiresAt, Claims: InspectClaims(cred.Token)}

	switch {
	case remaining <= 0:
		s.Status = StatusExpired
		s.Message = fmt.Sprintf("Token expired %s ago", humanDuration(-remaining))
	case remaining < ExpiryBuffer:
		s.Status = StatusExpiringSoon
		s.HumanRemaining = humanDuration(remaining)
		s.Message = fmt.Sprintf("Token expires in %s", s.HumanRemaining)
	default:
		s.Status = StatusValid
		s.HumanRemaining = humanDuration(remaining)
		s.Message = fmt.Sprintf("Token valid for %s", s.HumanRemaining)
	}
	return s
}

// humanDuration renders d in its largest whole unit, e.g. "2 hours".
func humanDuration(d time.Duration) string {
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "day"},
		{time.Hour, "hour"},
		{time.Minute, "min"},
	}
	for _, u := range units {
		if d >= u.size {
			return plural(int64(d/u.size), u.name)
		}
	}
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return plural(secs, "second")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
