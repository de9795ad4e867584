package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewCustomerAccessToken returns a fresh unguessable capability token.
func NewCustomerAccessToken() string {
	return uuid.NewString()
}

// GenerateStorageName returns a random file name keeping the extension of
// the uploaded file, in the format <32 hex chars><ext>.
func GenerateStorageName(originalName string) (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 16 {
		ext = ""
	}
	return hex.EncodeToString(bytes) + ext, nil
}
