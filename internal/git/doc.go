// Package git provides git integration status checks for vault files.
//
// Checks performed:
//   - Whether the vault file is tracked by git (encrypted, so safe and
//     useful to version: history plus merge across machines)
//   - Whether key files are tracked by git (never safe: a key file is
//     plaintext key material)
//   - Whether key files are in .gitignore (should be)
//
// These checks help users version the vault without accidentally
// committing the keys that open it.
package git
