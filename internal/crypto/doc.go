// Package crypto provides key derivation and authenticated encryption
// for the vault container.
//
// Key derivation supports two algorithms behind the Kdf interface:
//   - Argon2id (default): time=3, memory=64MiB, threads=4
//   - PBKDF2-HMAC-SHA256: 210,000 iterations (OWASP minimum recommendation)
//
// Payload encryption selects an AEAD by CipherID:
//   - AES-256-GCM (default)
//   - ChaCha20-Poly1305
//
// Both use a random per-operation nonce prepended to the ciphertext.
//
// The KeyEnvelope ties it together: master seed, KDF state and the
// transformed key derived from the composite credential. All envelope
// mutations derive into temporaries and commit only on success, so a
// failed key change never leaves the vault unverifiable under both the
// old and the new credential.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call KeyEnvelope.Clear() / Encryptor.Destroy() when done
package crypto
