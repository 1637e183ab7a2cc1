package logger

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// MinHashSaltLength is the shortest accepted LOG_HASH_SALT.
const MinHashSaltLength = 32

// ErrWeakHashSalt is returned when LOG_HASH_SALT is set but too short.
var ErrWeakHashSalt = errors.New("LOG_HASH_SALT must be at least 32 characters")

var hashSalt string

// InitHashSalt loads LOG_HASH_SALT. Without one a random per-process salt is
// used, so hashes are stable only for the lifetime of the process.
func InitHashSalt() error {
	salt := os.Getenv("LOG_HASH_SALT")
	if salt == "" {
		buf := make([]byte, MinHashSaltLength)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate hash salt: %w", err)
		}
		hashSalt = hex.EncodeToString(buf)
		Log.Warn().Msg("LOG_HASH_SALT not set, using a random salt")
		return nil
	}
	if len(salt) < MinHashSaltLength {
		return ErrWeakHashSalt
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt directly.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
// This allows tracking user actions without exposing actual user IDs.
func HashUserID(userID int64) string {
	return hashID(userID)
}

// HashChatID creates a privacy-preserving hash of a chat ID.
func HashChatID(chatID int64) string {
	return hashID(chatID)
}

func hashID(id int64) string {
	data := fmt.Sprintf("%d:%s", id, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// First 8 hex characters are enough to correlate log lines.
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeText redacts user-provided text, keeping a short prefix and the
// length for debugging.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return fmt.Sprintf("<%d chars>", n)
	}

	prefix := []rune(text)[:3]
	return fmt.Sprintf("%s...<%d chars>", string(prefix), n)
}
