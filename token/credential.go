package token

import "time"

// ExpiryBuffer is subtracted from a token's expiry before it is considered
// usable, so a request is never sent with a token about to lapse in flight.
const ExpiryBuffer = 300 * time.Second

// DefaultExpiresIn applies when the issuer omits expires_in.
const DefaultExpiresIn = 3600 * time.Second

// Source records where a credential came from.
type Source string

const (
	SourceOAuth  Source = "oauth"
	SourceManual Source = "manual"
)

// Credential is the single bearer token shared by every caller.
// ExpiresAt is unix seconds; 0 means unknown or never fetched.
type Credential struct {
	Token     string
	ExpiresAt int64
	Source    Source
}

// ValidAt reports whether an OAuth credential can still be used at now,
// honouring ExpiryBuffer. Manual credentials are not subject to expiry and
// are checked by the caller instead.
func (c Credential) ValidAt(now time.Time) bool {
	if c.Token == "" || c.ExpiresAt == 0 {
		return false
	}
	return c.ExpiresAt-int64(ExpiryBuffer.Seconds()) > now.Unix()
}

// Remaining is the time left before the raw expiry (no buffer applied).
func (c Credential) Remaining(now time.Time) time.Duration {
	return time.Unix(c.ExpiresAt, 0).Sub(now)
}
