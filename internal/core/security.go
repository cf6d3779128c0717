// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2Params describes one argon2id cost setting. Hashes record the
// parameters they were made with, so raising Password upgrades stored
// hashes on the next successful login.
type Argon2Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var Password = Argon2Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

var errMalformedHash = errors.New("malformed password hash")

type encodedHash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, Password.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	h := encodedHash{
		params: Password,
		salt:   salt,
		key:    derive(password, salt, Password),
	}
	return h.String(), nil
}

// VerifyPassword reports whether password produces the stored hash.
func VerifyPassword(password, stored string) (bool, error) {
	h, err := parseHash(stored)
	if err != nil {
		return false, err
	}

	candidate := derive(password, h.salt, h.params)
	return subtle.ConstantTimeCompare(h.key, candidate) == 1, nil
}

var decoyHash = sync.OnceValue(func() string {
	h, err := HashPassword("decoy-password-for-unknown-accounts")
	if err != nil {
		panic(fmt.Sprintf("security: build decoy hash: %v", err))
	}
	return h
})

// VerifyPasswordTimingSafe checks password against stored, spending the
// same argon2 work when stored is empty (unknown account) so response time
// does not reveal which emails are registered. upgraded is a fresh hash
// when the stored one used outdated parameters.
func VerifyPasswordTimingSafe(password, stored string) (ok bool, upgraded string, err error) {
	if stored == "" {
		//nolint:errcheck // result is discarded; only the work matters
		_, _ = VerifyPassword(password, decoyHash())
		return false, "", nil
	}

	ok, err = VerifyPassword(password, stored)
	if err != nil || !ok {
		return false, "", err
	}

	if h, perr := parseHash(stored); perr == nil && h.params.outdated() {
		if fresh, herr := HashPassword(password); herr == nil {
			upgraded = fresh
		}
	}

	return true, upgraded, nil
}

func derive(password string, salt []byte, p Argon2Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func (p Argon2Params) outdated() bool {
	return p.Memory != Password.Memory ||
		p.Time != Password.Time ||
		p.Threads != Password.Threads ||
		p.KeyLen != Password.KeyLen
}

// String renders the PHC form $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (h encodedHash) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		enc.EncodeToString(h.salt),
		enc.EncodeToString(h.key),
	)
}

func parseHash(s string) (*encodedHash, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, errMalformedHash
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("%w: unsupported version %q", errMalformedHash, parts[2])
	}

	var p Argon2Params
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errMalformedHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errMalformedHash, kv)
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errMalformedHash
			}
			p.Threads = uint8(n)
		}
	}

	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(parts[4])
	if err != nil {
		return nil, fmt.Errorf("%w: salt", errMalformedHash)
	}
	key, err := enc.DecodeString(parts[5])
	if err != nil {
		return nil, fmt.Errorf("%w: key", errMalformedHash)
	}

	//nolint:gosec // G115: argon2 keys are a few dozen bytes
	p.KeyLen = uint32(len(key))
	p.SaltLen = len(salt)

	return &encodedHash{params: p, salt: salt, key: key}, nil
}

// NewOpaqueToken returns n random bytes, URL-safe encoded.
func NewOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken is the lookup key stored for refresh tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
