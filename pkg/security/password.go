package security

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/marketdesk/marketdesk/pkg/config"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var tempPasswordCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

var (
	// ErrEmptyPassword is returned when hashing an empty plaintext.
	ErrEmptyPassword = pkgerrors.Invalid("password", "password cannot be empty")
	// ErrPasswordTooLong is returned for plaintexts bcrypt cannot represent.
	ErrPasswordTooLong = pkgerrors.Invalid("password", "password must be at most 72 bytes")
)

// Hasher produces and checks salted bcrypt digests.
type Hasher struct {
	cost   int
	logger *logger.Logger
}

// NewHasher builds a Hasher whose work factor is clamped to bcrypt's bounds.
func NewHasher(cfg config.PasswordConfig, logg *logger.Logger) *Hasher {
	return &Hasher{
		cost:   clampInt(cfg.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost),
		logger: logg,
	}
}

// Cost returns the effective work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a bcrypt digest with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests are
// logged and treated as a mismatch.
func (h *Hasher) Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) && h.logger != nil {
		ctx := h.logger.WithField(context.Background(), "reason", err.Error())
		h.logger.Warn(ctx, "password digest could not be parsed")
	}
	return false
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// GenerateTempPassword produces a random string suitable for temporary credentials.
func GenerateTempPassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	result := make([]rune, length)
	limit := big.NewInt(int64(len(tempPasswordCharset)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		result[i] = tempPasswordCharset[idx.Int64()]
	}
	return string(result), nil
}
