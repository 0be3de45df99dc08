package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"hash"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordHashCost is the bcrypt cost used by HashPassword
var PasswordHashCost = passwordHashCost()

// ErrMismatchedHashAndPassword is returned when the password does not match
var ErrMismatchedHashAndPassword = errors.New("identity auth: password does not match")

// unusablePrefix marks hashes that can never verify
const unusablePrefix = "!"

const pbkdf2Prefix = "pbkdf2:"

// HashPassword will generate a password hash. An empty password yields
// an empty hash and no error.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if !HasUsablePassword(hash) {
		return ErrMismatchedHashAndPassword
	}

	if strings.HasPrefix(hash, pbkdf2Prefix) {
		if comparePBKDF2(password, hash) {
			return nil
		}
		return ErrMismatchedHashAndPassword
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

var dummyPasswordHash = sync.OnceValue(func() string {
	h, _ := HashPassword(uuid.NewString())
	return h
})

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

// HasUsablePassword is false for empty and placeholder hashes
func HasUsablePassword(hash string) bool {
	return hash != "" && !strings.HasPrefix(hash, unusablePrefix)
}

// UnusablePasswordHash is the placeholder stored for invited users.
// The prefix keeps it from ever verifying, even against secret.
func UnusablePasswordHash(secret string) string {
	if secret == "" {
		secret = uuid.NewString()
	}

	h, err := HashPassword(secret)
	if err != nil || h == "" {
		return unusablePrefix + uuid.NewString()
	}

	return unusablePrefix + h
}

// comparePBKDF2 verifies hashes in the "pbkdf2:<alg>:<iterations>$<salt>$<hex>"
// layout written by the previous python deployment.
func comparePBKDF2(password, stored string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}

	method := strings.Split(strings.TrimPrefix(parts[0], pbkdf2Prefix), ":")
	if len(method) == 0 {
		return false
	}

	var fn func() hash.Hash
	switch method[0] {
	case "sha256":
		fn = sha256.New
	case "sha512":
		fn = sha512.New
	case "sha1":
		fn = sha1.New
	default:
		return false
	}

	iterations := 260000
	if len(method) > 1 {
		n, err := strconv.Atoi(method[1])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	expected, err := hex.DecodeString(parts[2])
	if err != nil || len(expected) == 0 {
		return false
	}

	derived := pbkdf2.Key([]byte(password), []byte(parts[1]), iterations, len(expected), fn)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
