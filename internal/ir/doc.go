// Package ir provides the declarative kernel representation for symgen.
//
// A Kernel names its input and output slots and gives every output element
// as an expression string (or as the Jacobian of another slot). The compiler
// produces Kernels from CUE files; the store persists Runs keyed by the
// kernel's content hash.
//
// This package imports nothing internal, so every other package may depend
// on it.
//
// Key design constraints:
//   - No floats in hashed values: sizes are ints, expressions stay text
//   - Canonical JSON (sorted keys, NFC strings) is the only input to hashes
//   - All JSON tags use snake_case
package ir
