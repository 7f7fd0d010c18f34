// Package password implements the one-way credential transform used for
// stored user passwords. Digests are bcrypt strings: salted, at most 60
// characters, and deliberately expensive to compute.
package password

import "golang.org/x/crypto/bcrypt"

// MaxLength is the longest plaintext bcrypt accepts, in bytes.
const MaxLength = 72

// Hash returns the bcrypt digest of plaintext. Two calls with the same
// input produce different digests because the salt is random.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plaintext reproduces the given digest. Malformed
// digests and mismatches both return false; Compare never fails harder
// than that.
func Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
