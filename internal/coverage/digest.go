package coverage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/KoryJCampbell/modelcard/internal/card"
)

// Digest returns the hex SHA-256 of the RFC 8785 canonical JSON form of c.
// Two cards with equal content produce the same digest regardless of key
// order in their source documents.
func Digest(c *card.Card) (string, error) {
	raw, err := json.Marshal(c.AsMap())
	if err != nil {
		return "", fmt.Errorf("coverage: digest marshal: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("coverage: digest canonicalize: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
