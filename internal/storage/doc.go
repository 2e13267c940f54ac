// Package storage reads and writes the BBolt vault container.
//
// Container structure uses three buckets:
//   - config: format version, vault id, cipher suite, KDF parameters,
//     master seed, timestamps, public custom data (unencrypted)
//   - index: group and entry counts (unencrypted, for status)
//   - private: key check value and the serialized vault tree, both
//     compressed and AEAD-encrypted with the derived key
//
// The unencrypted config and index buckets let keepassxc status report
// on a vault without requiring the key. They reveal object counts and
// cipher settings, never names or credentials.
//
// Reads open the file read-only, so a failed unlock can never disturb
// it. Writes go through Writer, which core.Database.SaveToFile wraps
// with its backup and temp-file-then-rename replace.
//
// BBolt provides ACID transactions, file locking, and corruption
// detection.
package storage
