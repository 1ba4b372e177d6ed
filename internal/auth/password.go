// Package auth hashes and verifies account passwords.
//
// New hashes use argon2id by default. Stored bcrypt hashes keep verifying so
// the scheme can be switched without invalidating existing accounts.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	KindArgon2id = "argon2id"
	KindBcrypt   = "bcrypt"
)

var (
	// ErrMismatch is returned by Verify when the password does not match.
	ErrMismatch = errors.New("password mismatch")
	// ErrUnknownHash is returned for an encoding Verify cannot parse.
	ErrUnknownHash = errors.New("unknown password hash format")
)

// ArgonParams are the argon2id cost parameters. Memory is in KiB.
type ArgonParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgonParams follow the RFC 9106 second recommended option.
var DefaultArgonParams = ArgonParams{Memory: 64 * 1024, Time: 3, Threads: 4, SaltLen: 16, KeyLen: 32}

type Hasher struct {
	Kind       string
	Argon      ArgonParams
	BcryptCost int
}

// NewHasher returns a Hasher for kind ("argon2id" or "bcrypt") with default costs.
func NewHasher(kind string) (*Hasher, error) {
	switch kind {
	case KindArgon2id, "":
		return &Hasher{Kind: KindArgon2id, Argon: DefaultArgonParams}, nil
	case KindBcrypt:
		return &Hasher{Kind: KindBcrypt, BcryptCost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unsupported hash kind %q", kind)
	}
}

// Hash returns an encoded, salted hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.Kind == KindBcrypt {
		cost := h.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	}

	p := h.Argon
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash produced by either scheme.
func (h *Hasher) Verify(encoded, password string) error {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(encoded, password)
	case strings.HasPrefix(encoded, "$2"):
		if err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return ErrMismatch
			}
			return err
		}
		return nil
	default:
		return ErrUnknownHash
	}
}

// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func verifyArgon2id(encoded, password string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return ErrUnknownHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return ErrUnknownHash
	}

	var p ArgonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return ErrUnknownHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrUnknownHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrUnknownHash
	}

	got := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}
