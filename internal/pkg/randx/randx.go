/*
Package randx provides functions for generating cryptographically secure random numbers and unique identifiers.

It is primarily used to generate Base62 encoded session identifiers and UUID connection identifiers.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// SessionIDPrefix is the fixed, recognizable prefix of every session identifier.
	SessionIDPrefix = "sess_"

	// SessionIDRawLength is the length of the random Base62 suffix (about 71 bits of entropy).
	SessionIDRawLength = 12
)

// SessionID generates a session identifier using crypto/rand.
// Session identifiers are bearer capabilities for rejoining, so they must stay unguessable.
func SessionID() (string, error) {
	result := make([]byte, SessionIDRawLength)

	for i := range SessionIDRawLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for session id: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return SessionIDPrefix + string(result), nil
}

// ConnID generates a standard UUID v4 string to serve as a unique identifier for a connection.
func ConnID() string {
	return uuid.New().String()
}

// IsValidSessionID checks if the given string has the shape of a session identifier.
func IsValidSessionID(id string) bool {
	if !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}

	rawID := id[len(SessionIDPrefix):]

	if len(rawID) != SessionIDRawLength {
		return false
	}

	for _, char := range rawID {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// IsValidConnID checks if the given string is a parseable connection identifier.
func IsValidConnID(id string) bool {
	return uuid.Validate(id) == nil
}
