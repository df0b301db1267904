// SPDX-License-Identifier: MPL-2.0

// Package vcs queries and fetches module working copies.
//
// VersionControl is the port the override controller depends on. Two
// backends implement it: ExecGit shells out to the git CLI and GoGit uses the
// embedded go-git library. Checker turns the raw query output into clean and
// pushed verdicts. Every query is read-only.
package vcs
