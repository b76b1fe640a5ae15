package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// QuickWinID computes a deterministic quick-win id.
// Formula: base58(SHA256(type|entity_id|subject))
// subject is the recommended category for cross-sell actions and empty
// for repeat orders.
func QuickWinID(
	quickWinType string,
	entityID string,
	subject string,
) string {
	data := fmt.Sprintf("%s|%s|%s",
		quickWinType,
		entityID,
		subject,
	)
	return encode(data)
}

// Fingerprint hashes the identity of a run's input: window description,
// reference day and one line per record. Records must be in a stable order.
// Returns hex-encoded hash (64 characters).
func Fingerprint(window string, asOf time.Time, lines []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s\n", window, asOf.UTC().Format(time.DateOnly))
	h.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
