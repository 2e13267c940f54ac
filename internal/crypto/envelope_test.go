package crypto

import (
	"bytes"
	"errors"
	"testing"
)

// testKey is a minimal composite credential for envelope tests. RawKey
// returns a copy, matching the DatabaseKey contract.
type testKey struct {
	raw       []byte
	challenge []byte
}

func (k testKey) RawKey() []byte {
	return append([]byte(nil), k.raw...)
}

func (k testKey) Challenge(seed []byte) ([]byte, error) {
	if k.challenge == nil {
		return nil, nil
	}
	return append([]byte(nil), k.challenge...), nil
}

// brokenKey stands in for an unreachable hardware token
type brokenKey struct{}

func (brokenKey) RawKey() []byte { return []byte("broken") }
func (brokenKey) Challenge(seed []byte) ([]byte, error) {
	return nil, errors.New("token unreachable")
}

func fastEnvelope() *KeyEnvelope {
	e := NewKeyEnvelope()
	e.SetKdf(NewPbkdf2Kdf(1))
	return e
}

func TestEnvelopeSetAndVerifyKey(t *testing.T) {
	e := fastEnvelope()
	key := testKey{raw: []byte("secret")}

	if e.VerifyKey(key) {
		t.Error("An empty envelope should verify nothing")
	}

	if err := e.SetKey(key, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}
	if !e.HasKey() {
		t.Error("Envelope should report a key")
	}
	if !e.VerifyKey(key) {
		t.Error("The installed key should verify")
	}
	if e.VerifyKey(testKey{raw: []byte("other")}) {
		t.Error("A wrong key should not verify")
	}

	// Verification is repeatable: nothing wipes the stored state
	if !e.VerifyKey(key) {
		t.Error("A second verification should still pass")
	}
}

func TestEnvelopeFailedKeyChangeKeepsState(t *testing.T) {
	e := fastEnvelope()
	key := testKey{raw: []byte("secret")}
	if err := e.SetKey(key, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	// The replacement credential cannot answer its challenge
	if err := e.SetKey(brokenKey{}, true); err == nil {
		t.Fatal("Setting an unanswerable key should fail")
	}

	if !e.HasKey() {
		t.Error("A failed key change should keep the envelope keyed")
	}
	if !e.VerifyKey(key) {
		t.Error("The previous key should still verify")
	}
}

func TestEnvelopeSetKdfInvalidatesKey(t *testing.T) {
	e := fastEnvelope()
	if err := e.SetKey(testKey{raw: []byte("secret")}, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	e.SetKdf(NewPbkdf2Kdf(2))

	if e.HasKey() {
		t.Error("Replacing the KDF should invalidate the derived key")
	}
	if _, err := e.EncryptionKey(); !errors.Is(err, ErrNoKey) {
		t.Errorf("Expected ErrNoKey, got %v", err)
	}
}

func TestEnvelopeResolveKeyMatchesSetKey(t *testing.T) {
	e := fastEnvelope()
	key := testKey{raw: []byte("secret")}
	if err := e.SetKey(key, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}
	want := e.TransformedKey()

	// A second envelope primed with the stored seed and KDF params, as
	// the container loader does on unlock, derives the same key
	loaded := NewKeyEnvelope()
	kdf, err := KdfFromParams(e.Kdf().Params())
	if err != nil {
		t.Fatalf("Failed to rebuild KDF: %v", err)
	}
	loaded.SetKdf(kdf)
	loaded.SetMasterSeed(e.MasterSeed())
	if err := loaded.ResolveKey(key); err != nil {
		t.Fatalf("Failed to resolve key: %v", err)
	}

	if !bytes.Equal(loaded.TransformedKey(), want) {
		t.Error("Resolving against stored parameters should reproduce the transformed key")
	}
}

func TestEncryptionKeyFoldsChallengeResponse(t *testing.T) {
	plain := testKey{raw: []byte("secret")}
	withToken := testKey{raw: []byte("secret"), challenge: []byte("response")}

	e1 := fastEnvelope()
	if err := e1.SetKey(plain, false); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}
	k1, err := e1.EncryptionKey()
	if err != nil {
		t.Fatalf("Failed to derive encryption key: %v", err)
	}

	// Deterministic for a fixed envelope state
	k1again, err := e1.EncryptionKey()
	if err != nil {
		t.Fatalf("Failed to derive encryption key: %v", err)
	}
	if !bytes.Equal(k1, k1again) {
		t.Error("EncryptionKey should be deterministic")
	}

	// Same seed and KDF, same raw key, but with a challenge factor:
	// the transformed keys match while the encryption keys diverge
	e2 := NewKeyEnvelope()
	kdf, err := KdfFromParams(e1.Kdf().Params())
	if err != nil {
		t.Fatalf("Failed to rebuild KDF: %v", err)
	}
	e2.SetKdf(kdf)
	e2.SetMasterSeed(e1.MasterSeed())
	if err := e2.ResolveKey(withToken); err != nil {
		t.Fatalf("Failed to resolve key: %v", err)
	}
	if !bytes.Equal(e1.TransformedKey(), e2.TransformedKey()) {
		t.Fatal("Equal raw keys under one KDF state should transform equally")
	}
	k2, err := e2.EncryptionKey()
	if err != nil {
		t.Fatalf("Failed to derive encryption key: %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Error("A challenge response should change the encryption key")
	}
}

func TestEnvelopeClear(t *testing.T) {
	e := fastEnvelope()
	key := testKey{raw: []byte("secret")}
	if err := e.SetKey(key, true); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	e.Clear()

	if e.HasKey() {
		t.Error("Clear should drop the key")
	}
	if e.VerifyKey(key) {
		t.Error("Nothing should verify after Clear")
	}
	if len(e.TransformedKey()) != 0 {
		t.Error("Clear should wipe the transformed key")
	}
}
