// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/lktool/lktool/pkg/types"
)

// ExitError carries the process status for a failed command back to Execute,
// which is the only place lktool calls os.Exit. Err is usually the
// *ServiceError produced by failure, or the build tool's error for build and
// run.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error prints the wrapped message unchanged, so the classified
// "Error [<Kind>]" line reaches stderr as is.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lktool exited with status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
