package auth

import (
	"log"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BootstrapAdmin is the hardcoded fallback admin credential used to bring up
// a fresh deployment before any real admin account exists. It is compared in
// plaintext, bypasses the user store entirely, and must stay an isolated code
// path so it can be audited and removed. Disabled when the password is empty.
type BootstrapAdmin struct {
	Email    string
	Password string
}

// Match reports whether the submitted credentials are the bootstrap admin.
// Checked BEFORE any database lookup; every successful use is logged.
func (b BootstrapAdmin) Match(email, password string) bool {
	if b.Password == "" {
		return false
	}
	if email != b.Email || password != b.Password {
		return false
	}
	log.Printf("SECURITY: bootstrap admin login used for %s", email)
	return true
}
