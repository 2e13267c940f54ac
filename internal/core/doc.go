// Package core implements the vault object model and its operations.
//
// The model is a tree: one root Group per Database, groups holding
// ordered child groups and Entry records, entries holding their prior
// versions as history snapshots. Policies (auto-type, searching, merge
// mode) inherit down the tree and resolve at the root when no group
// overrides them.
//
// Core operations include:
//   - Database: open-vault state, tombstones, recycle bin, key
//     envelope access and atomic SaveToFile
//   - Group/Entry: setters that stamp modification times, move
//     semantics that record tombstones only when an object truly
//     leaves a database
//   - Merger: three-way-free reconciliation of a remote vault copy,
//     driven by per-group merge modes
//   - Report: human-readable listing of what a merge changed
//
// Persistence lives in the storage package behind the ContainerWriter
// seam; key derivation lives in the crypto package behind the
// KeyEnvelope.
package core
