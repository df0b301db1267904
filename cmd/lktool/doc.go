// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the lktool command tree.
//
// Every handler receives an *App and returns an error instead of exiting.
// Domain failures are classified into an error kind and an exit code by
// classifyError and rendered once by the fang error handler installed in
// Execute.
package cmd
