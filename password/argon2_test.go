package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestArgon2(t *testing.T) *Argon2 {
	t.Helper()
	hasher, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return hasher
}

func TestArgon2HashAndValidate(t *testing.T) {
	hasher := newTestArgon2(t)

	hash, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if hash == "hunter2" {
		t.Fatal("hash must differ from the raw password")
	}
	if !hasher.Validate("hunter2", hash) {
		t.Fatal("expected password validation to succeed")
	}
}

func TestArgon2HashIsSalted(t *testing.T) {
	hasher := newTestArgon2(t)

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct encodings")
	}
	if !hasher.Validate("same-password", first) || !hasher.Validate("same-password", second) {
		t.Fatal("expected both encodings to validate")
	}
}

func TestArgon2ValidateWrongPassword(t *testing.T) {
	hasher := newTestArgon2(t)

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
	if hasher.Validate("wrong-password", hash) {
		t.Fatal("expected Validate to reject wrong password")
	}
}

func TestArgon2MalformedHash(t *testing.T) {
	hasher := newTestArgon2(t)

	if _, err := hasher.Verify("password", "not-a-phc-hash"); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
	if hasher.Validate("password", "not-a-phc-hash") {
		t.Fatal("expected Validate to return false for malformed hash")
	}
	if hasher.Validate("password", "") {
		t.Fatal("expected Validate to return false for empty hash")
	}
}

func TestArgon2WrongVersion(t *testing.T) {
	hasher := newTestArgon2(t)

	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	wrongVersion := strings.Replace(hash, "$v=19$", "$v=18$", 1)
	if _, err := hasher.Verify("version-test", wrongVersion); !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash for unsupported version, got %v", err)
	}
}

func TestArgon2HashEmptyPassword(t *testing.T) {
	hasher := newTestArgon2(t)

	if _, err := hasher.Hash(""); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestArgon2RejectsWeakConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected low memory config to be rejected")
	}

	cfg = fastConfig()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt config to be rejected")
	}
}

func TestDefaultArgon2ConfigIsValid(t *testing.T) {
	if _, err := NewArgon2(DefaultArgon2Config()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestArgon2EncodingIsUnpadded(t *testing.T) {
	hasher := newTestArgon2(t)

	hash, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if strings.Contains(hash, "=$") || strings.HasSuffix(hash, "=") {
		t.Fatalf("expected unpadded base64 fields, got %s", hash)
	}
	if fields := strings.Split(hash, "$"); len(fields) != 6 {
		t.Fatalf("expected 6 PHC fields, got %d", len(fields))
	}
}

func TestArgon2NeedsRehash(t *testing.T) {
	hasher := newTestArgon2(t)

	hash, err := hasher.Hash("hunter2")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hasher.NeedsRehash(hash) {
		t.Fatal("hash produced with current parameters must not need rehash")
	}

	stronger := fastConfig()
	stronger.Time = 2
	upgraded, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	if !upgraded.NeedsRehash(hash) {
		t.Fatal("expected rehash after raising the time cost")
	}
	if !upgraded.Validate("hunter2", hash) {
		t.Fatal("old parameters must still validate")
	}
	if !hasher.NeedsRehash("$2a$04$not-argon") {
		t.Fatal("foreign encodings need rehash")
	}
}
