package shortener

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ShortID is the public path segment identifying a stored URL.
type ShortID string

// URLHash is the hex SHA-256 of an original URL, used as its uniqueness key.
type URLHash string

// ShortLink maps a short identifier to the URL it redirects to.
type ShortLink struct {
	ShortID     ShortID
	OriginalURL string
	URLHash     URLHash
	CreatedAt   time.Time
}

// HashURL computes the uniqueness key for an original URL.
// The URL is hashed exactly as given so lookups stay exact-match.
func HashURL(originalURL string) URLHash {
	h := sha256.Sum256([]byte(originalURL))

	return URLHash(hex.EncodeToString(h[:]))
}

// ShortURL joins a base (scheme+host or bare host) with a short identifier.
func ShortURL(base string, id ShortID) string {
	return strings.TrimSuffix(base, "/") + "/" + string(id)
}
