// auth/auth.go

// Package auth guards the API with a shared token sent in X-Lumi-Token.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/config"
)

const (
	HeaderToken = "X-Lumi-Token"

	verifiedCacheSize = 64
)

// Verifier checks tokens against a bcrypt hash. Tokens that verified once are
// remembered by digest so bcrypt runs once per distinct token.
type Verifier struct {
	hash     []byte
	verified *lru.Cache[string, struct{}]
}

// NewVerifier builds a verifier from the configured hash, or hashes the
// plain password when no hash is configured.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		if cfg.Password == "" {
			return nil, fmt.Errorf("auth requires a password or password hash")
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}

	cache, err := lru.New[string, struct{}](verifiedCacheSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{hash: hash, verified: cache}, nil
}

// Verify reports whether token matches the configured password.
func (v *Verifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:])
	if v.verified.Contains(key) {
		return true
	}
	if bcrypt.CompareHashAndPassword(v.hash, []byte(token)) != nil {
		return false
	}
	v.verified.Add(key, struct{}{})
	return true
}

// Middleware rejects requests without a valid token. OPTIONS requests pass
// so CORS preflights succeed.
func Middleware(v *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		if !v.Verify(c.Get(HeaderToken)) {
			return apperr.Unauthorized("Unauthorized")
		}
		return c.Next()
	}
}
