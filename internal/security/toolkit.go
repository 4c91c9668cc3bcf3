package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSecureToken returns an unpredictable opaque token for session,
// verification and reset flows: a random UUID without separators followed by
// the current time in hex nanoseconds.
func GenerateSecureToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strconv.FormatInt(time.Now().UnixNano(), 16)
}

// NormalizeAnswer canonicalizes a security answer: trimmed, lowercased, with
// internal whitespace collapsed to single spaces.
func NormalizeAnswer(answer string) string {
	return strings.Join(strings.Fields(strings.ToLower(answer)), " ")
}

// HashSecurityAnswer hashes a normalized security answer with the given salt.
// Output is always 64 lowercase hex characters.
func HashSecurityAnswer(answer, salt string) string {
	sum := sha256.Sum256([]byte(salt + NormalizeAnswer(answer)))
	return hex.EncodeToString(sum[:])
}

// VerifySecurityAnswer reports whether the answer matches the stored hash.
func VerifySecurityAnswer(answer, hash, salt string) bool {
	computed := HashSecurityAnswer(answer, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// ValidPin reports whether a PIN is acceptable: 4 to 6 digits, not a strictly
// ascending run, not a strictly descending run and not a single repeated digit.
func ValidPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}

	ascending, descending, identical := true, true, true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[i-1]+1 {
			ascending = false
		}
		if pin[i] != pin[i-1]-1 {
			descending = false
		}
		if pin[i] != pin[i-1] {
			identical = false
		}
	}

	return !ascending && !descending && !identical
}

// GenerateRequestID builds a request reference: six-digit date prefix (YYMMDD)
// followed by six random digits.
func GenerateRequestID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken; fall
		// back to the clock rather than return an empty reference.
		n = big.NewInt(time.Now().UnixNano() % 1000000)
	}
	return time.Now().UTC().Format("060102") + fmt.Sprintf("%06d", n.Int64())
}

// TokenExpired reports whether the given expiry instant has passed.
func TokenExpired(expiry time.Time) bool {
	return time.Now().After(expiry)
}

// CurrentTimestamp returns the current UTC time in RFC3339 format.
func CurrentTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
