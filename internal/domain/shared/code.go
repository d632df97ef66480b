package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewDocumentCode generates a human-readable document code of the form
// <PREFIX>-<YYYYMMDD>-<6 hex>. Uniqueness is enforced by the database; callers
// retry on collision.
func NewDocumentCode(prefix string, t time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%s-%06X", prefix, t.Format("20060102"), t.UnixNano()&0xFFFFFF)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("20060102"), hex.EncodeToString(buf))
}
