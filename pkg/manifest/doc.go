// SPDX-License-Identifier: MPL-2.0

// Package manifest reads and rewrites the project build manifest (Cargo.toml)
// and maintains its override table.
//
// Overrides live in the Cargo [patch] table, keyed by source location:
//
//	[patch."https://example.org/kernel/repo-x"]
//	alpha = { path = "repo-x/alpha" }
//	beta = { path = "repo-x/beta" }
//
// Every change is a whole-document rewrite: the file is parsed into a generic
// map, mutated in memory, serialized, and then swapped into place with a
// temporary file and a rename. Comments, key order and other formatting
// outside the data model are not preserved.
package manifest
