// SPDX-License-Identifier: MPL-2.0

// Package registry resolves module names to source locations using a registry
// document (Repo.toml).
//
// The registry declares module classes as TOML tables. Each table maps a bare
// module name to the location of the repository holding its source:
//
//	[shared]
//	alpha = "https://example.org/kernel/repo-x"
//	beta  = "https://example.org/kernel/repo-x"
//
//	[root]
//	hello = "https://example.org/kernel/hello-top"
//
// Resolution searches the shared class before the root class; the first match
// wins. A registry is an immutable input: Load reads the file on every call and
// nothing is cached between invocations.
package registry
