package security_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marketdesk/marketdesk/pkg/config"
	pkgerrors "github.com/marketdesk/marketdesk/pkg/errors"
	"github.com/marketdesk/marketdesk/pkg/logger"
	"github.com/marketdesk/marketdesk/pkg/security"
	"golang.org/x/crypto/bcrypt"
)

func newHasher(buf *bytes.Buffer) *security.Hasher {
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	return security.NewHasher(config.PasswordConfig{BcryptCost: bcrypt.MinCost}, logg)
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := newHasher(&bytes.Buffer{})

	hash, err := hasher.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "" || hash == "very-secure-password" {
		t.Fatal("Hash returned an unusable digest")
	}
	if !hasher.Verify("very-secure-password", hash) {
		t.Fatal("Verify failed for the correct password")
	}
	if hasher.Verify("bogus-password", hash) {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestHashIsSaltedPerCall(t *testing.T) {
	hasher := newHasher(&bytes.Buffer{})

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("first hash: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("second hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct digests for the same plaintext")
	}
	if !hasher.Verify("same-password", first) || !hasher.Verify("same-password", second) {
		t.Fatal("both digests should verify")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	hasher := newHasher(&bytes.Buffer{})

	_, err := hasher.Hash("")
	if err == nil {
		t.Fatal("expected error for empty password")
	}
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := hasher.Hash(strings.Repeat("x", 73)); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for long password, got %v", err)
	}
}

func TestVerifyMalformedDigestReturnsFalseAndLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	hasher := newHasher(buf)

	if hasher.Verify("irrelevant", "not-a-hash") {
		t.Fatal("expected false for malformed digest")
	}
	if !strings.Contains(buf.String(), "password digest could not be parsed") {
		t.Fatalf("expected warning log, got %q", buf.String())
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	low := security.NewHasher(config.PasswordConfig{BcryptCost: 1}, nil)
	if low.Cost() != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", low.Cost())
	}
	high := security.NewHasher(config.PasswordConfig{BcryptCost: 99}, nil)
	if high.Cost() != bcrypt.MaxCost {
		t.Fatalf("expected max cost, got %d", high.Cost())
	}
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := security.GenerateTempPassword(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pw) != 16 {
		t.Fatalf("expected 16 chars, got %d", len(pw))
	}
	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
