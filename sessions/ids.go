package sessions

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newID builds "<prefix>_<unix millis>_<8 random hex chars>".
func newID(prefix string, at time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("%s_%d_%s", prefix, at.UnixMilli(), hex.EncodeToString(u[:4]))
}

// normalizeTime drops the monotonic reading and sub-millisecond precision so
// stored timestamps survive a JSON round trip unchanged.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
