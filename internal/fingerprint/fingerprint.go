// Package fingerprint derives content digests used to detect duplicate
// issues within and across runs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// bodyPreviewRunes is how much of the body participates in the digest.
// Counted in Unicode code points, not bytes.
const bodyPreviewRunes = 100

// Generate returns the hex-encoded SHA-256 fingerprint of an issue.
// The digest covers the repository (lowercased), the title, and the first
// 100 runes of the body. A missing body is treated as an empty string.
// Same inputs always produce the same digest; the idempotency logic
// depends on this.
func Generate(repository, title, body string) string {
	repo := strings.ToLower(strings.TrimSpace(repository))
	title = strings.TrimSpace(title)

	preview := strings.TrimSpace(body)
	if runes := []rune(preview); len(runes) > bodyPreviewRunes {
		preview = string(runes[:bodyPreviewRunes])
	}

	sum := sha256.Sum256([]byte(repo + "|" + title + "|" + preview))
	return hex.EncodeToString(sum[:])
}
