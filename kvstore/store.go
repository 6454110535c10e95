// Package kvstore models the host's durable key-value storage. Credential
// settings and the serialized conversation blob both live behind Store.
package kvstore

import (
	"context"
	"strconv"
	"strings"
)

// Store is a flat string key-value store. Absent keys are reported with
// found == false, never as an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes every pair or none of them.
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, key string) error
}

// GetString returns the stored value or "" when the key is absent.
func GetString(ctx context.Context, s Store, key string) (string, error) {
	v, _, err := s.Get(ctx, key)
	return v, err
}

// GetInt64 returns the stored integer; absent or malformed values read as 0.
func GetInt64(ctx context.Context, s Store, key string) (int64, error) {
	v, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}
	n, perr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if perr != nil {
		return 0, nil
	}
	return n, nil
}

// GetBool returns the stored flag; absent or unrecognised values read as false.
func GetBool(ctx context.Context, s Store, key string) (bool, error) {
	v, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	}
	return false, nil
}

func FormatInt64(n int64) string {
	return strconv.FormatInt(n, 10)
}

func FormatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
