package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPasswordKeyDigestsEagerly(t *testing.T) {
	password := []byte("hunter2")
	key := NewPasswordKey(password)
	raw := key.RawKey()

	// The caller keeps ownership of the buffer; wiping it afterwards
	// must not disturb the factor
	for i := range password {
		password[i] = 0
	}
	if !bytes.Equal(key.RawKey(), raw) {
		t.Error("The factor should digest the password at construction")
	}

	if bytes.Equal(NewPasswordKey([]byte("other")).RawKey(), raw) {
		t.Error("Different passwords should produce different raw keys")
	}
	if !bytes.Equal(NewPasswordKey([]byte("hunter2")).RawKey(), raw) {
		t.Error("Equal passwords should produce equal raw keys")
	}
}

func TestFileKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.key")
	if err := os.WriteFile(path, []byte("key material"), 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}

	a, err := NewFileKey(path)
	if err != nil {
		t.Fatalf("Failed to load key file: %v", err)
	}
	b, err := NewFileKey(path)
	if err != nil {
		t.Fatalf("Failed to load key file: %v", err)
	}
	if !bytes.Equal(a.RawKey(), b.RawKey()) {
		t.Error("The same file should always produce the same raw key")
	}

	other := filepath.Join(dir, "other.key")
	if err := os.WriteFile(other, []byte("different material"), 0600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	c, err := NewFileKey(other)
	if err != nil {
		t.Fatalf("Failed to load key file: %v", err)
	}
	if bytes.Equal(a.RawKey(), c.RawKey()) {
		t.Error("Different file contents should produce different raw keys")
	}

	if _, err := NewFileKey(filepath.Join(dir, "missing.key")); err == nil {
		t.Error("Loading a missing key file should fail")
	}
}

func TestCompositeKeyFactorOrder(t *testing.T) {
	ab := NewCompositeKey()
	ab.AddKey(NewPasswordKey([]byte("a")))
	ab.AddKey(NewPasswordKey([]byte("b")))

	ba := NewCompositeKey()
	ba.AddKey(NewPasswordKey([]byte("b")))
	ba.AddKey(NewPasswordKey([]byte("a")))

	if bytes.Equal(ab.RawKey(), ba.RawKey()) {
		t.Error("Factor order should be significant")
	}
	if ab.Equals(ba) {
		t.Error("Differently ordered composites should not compare equal")
	}

	ab2 := NewCompositeKey()
	ab2.AddKey(NewPasswordKey([]byte("a")))
	ab2.AddKey(NewPasswordKey([]byte("b")))
	if !ab.Equals(ab2) {
		t.Error("Equal factor sequences should compare equal")
	}
}

func TestCompositeKeyIsEmpty(t *testing.T) {
	key := NewCompositeKey()
	if !key.IsEmpty() {
		t.Error("A fresh composite should be empty")
	}

	key.AddKey(NewPasswordKey([]byte("x")))
	if key.IsEmpty() {
		t.Error("A composite with a factor should not be empty")
	}

	withChallenge := NewCompositeKey()
	withChallenge.AddChallengeKey(NewHMACChallengeKey([]byte("secret")))
	if withChallenge.IsEmpty() {
		t.Error("A challenge factor alone should count")
	}
}

func TestCompositeKeyChallenge(t *testing.T) {
	plain := NewCompositeKey()
	plain.AddKey(NewPasswordKey([]byte("x")))

	// No challenge factors: no response, no error
	resp, err := plain.Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if resp != nil {
		t.Errorf("Expected no response, got %x", resp)
	}

	withToken := NewCompositeKey()
	withToken.AddKey(NewPasswordKey([]byte("x")))
	withToken.AddChallengeKey(NewHMACChallengeKey([]byte("secret")))

	r1, err := withToken.Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	r2, err := withToken.Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if !bytes.Equal(r1, r2) {
		t.Error("The same seed should produce the same response")
	}

	r3, err := withToken.Challenge([]byte("other seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if bytes.Equal(r1, r3) {
		t.Error("Different seeds should produce different responses")
	}

	// Challenge factor counts make composites unequal
	if plain.Equals(withToken) {
		t.Error("Composites with different challenge factors should not compare equal")
	}
}

func TestHMACChallengeKey(t *testing.T) {
	a := NewHMACChallengeKey([]byte("secret"))
	b := NewHMACChallengeKey([]byte("secret"))

	ra, err := a.Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	rb, err := b.Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if !bytes.Equal(ra, rb) {
		t.Error("Equal secrets should answer equally")
	}

	rc, err := NewHMACChallengeKey([]byte("other")).Challenge([]byte("seed"))
	if err != nil {
		t.Fatalf("Challenge failed: %v", err)
	}
	if bytes.Equal(ra, rc) {
		t.Error("Different secrets should answer differently")
	}
}
