package domain

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultTokenPrefix = "CINE"

// TokenGenerator issues redemption tokens. Tokens are printable ASCII and
// URL-path safe so they survive QR encoding and manual entry unchanged.
type TokenGenerator func() string

func NewTokenGenerator(prefix string) TokenGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultTokenPrefix
	}
	return func() string {
		return prefix + "-" + uuid.NewString()
	}
}
