package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost keeps a single hash in the tens of milliseconds on
// current hardware.
const bcryptCost = 10

// HashPassword derives a salted bcrypt hash from the raw password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
// Malformed hashes count as a mismatch rather than an error, so a
// login attempt can only ever degrade to "invalid credentials".
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
