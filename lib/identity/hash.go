// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters. These are stored implicitly: changing them
// invalidates every existing credential, so a change requires a
// password rotation for all users.
const (
	hashTime    = 1
	hashMemory  = 64 * 1024
	hashThreads = 4
	hashLength  = 32
	saltLength  = 16
)

// newSalt returns a fresh random salt, hex-encoded for the store.
func newSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// hashPassword derives the hex-encoded argon2id hash of password with
// the given hex-encoded salt.
func hashPassword(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, hashTime, hashMemory, hashThreads, hashLength)
	return hex.EncodeToString(key), nil
}

// hashEqual compares two hex-encoded hashes in constant time.
func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
