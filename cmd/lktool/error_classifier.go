// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lktool/lktool/internal/buildrun"
	"github.com/lktool/lktool/internal/config"
	"github.com/lktool/lktool/internal/issue"
	"github.com/lktool/lktool/internal/override"
	"github.com/lktool/lktool/internal/scaffold"
	"github.com/lktool/lktool/internal/vcs"
	"github.com/lktool/lktool/pkg/manifest"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

// Error kinds printed as "Error [<kind>]".
const (
	KindModuleNotFound            ErrorKind = "ModuleNotFound"
	KindCheckoutFailed            ErrorKind = "CheckoutFailed"
	KindWorkingCopyDirty          ErrorKind = "WorkingCopyDirty"
	KindUnpushedChanges           ErrorKind = "UnpushedChanges"
	KindVcsUnavailable            ErrorKind = "VcsUnavailable"
	KindOverrideTableMissing      ErrorKind = "OverrideTableMissing"
	KindManifestParseError        ErrorKind = "ManifestParseError"
	KindManifestWriteError        ErrorKind = "ManifestWriteError"
	KindInconsistentOverrideState ErrorKind = "InconsistentOverrideState"
	KindRegistryLoadFailed        ErrorKind = "RegistryLoadFailed"
	KindConfigLoadFailed          ErrorKind = "ConfigLoadFailed"
	KindProjectExists             ErrorKind = "ProjectExists"
	KindBuildFailed               ErrorKind = "BuildFailed"
	KindFailure                   ErrorKind = "Failure"
)

type (
	// ErrorKind names a failure class for users and scripts.
	ErrorKind string

	// classification is the CLI view of an error.
	classification struct {
		Kind     ErrorKind
		Code     types.ExitCode
		IssueID  issue.Id
		Diagnose string
	}

	diagnostic interface {
		Diagnostic() string
	}
)

// classifyError maps err onto a kind, exit code and issue entry. Checks run
// from most to least specific: an inconsistent-state error caused by a failed
// delete is still reported as inconsistent state.
func classifyError(err error) classification {
	c := classification{Kind: KindFailure, Code: 1}

	switch {
	case errors.Is(err, override.ErrInconsistentOverrideState):
		c = classification{Kind: KindInconsistentOverrideState, Code: 18, IssueID: issue.InconsistentOverrideStateId}
	case errors.Is(err, override.ErrWorkingCopyDirty):
		c = classification{Kind: KindWorkingCopyDirty, Code: 12, IssueID: issue.WorkingCopyDirtyId}
	case errors.Is(err, override.ErrUnpushedChanges):
		c = classification{Kind: KindUnpushedChanges, Code: 13, IssueID: issue.UnpushedChangesId}
	case errors.Is(err, vcs.ErrCheckoutFailed):
		c = classification{Kind: KindCheckoutFailed, Code: 11, IssueID: issue.CheckoutFailedId}
	case errors.Is(err, vcs.ErrVcsUnavailable):
		c = classification{Kind: KindVcsUnavailable, Code: 14, IssueID: issue.VcsUnavailableId}
	case errors.Is(err, registry.ErrModuleNotFound):
		c = classification{Kind: KindModuleNotFound, Code: 10, IssueID: issue.ModuleNotFoundId}
	case errors.Is(err, manifest.ErrOverrideTableMissing):
		c = classification{Kind: KindOverrideTableMissing, Code: 15, IssueID: issue.OverrideTableMissingId}
	case errors.Is(err, manifest.ErrManifestParse):
		c = classification{Kind: KindManifestParseError, Code: 16, IssueID: issue.ManifestParseErrorId}
	case errors.Is(err, manifest.ErrManifestWrite):
		c = classification{Kind: KindManifestWriteError, Code: 17, IssueID: issue.ManifestWriteErrorId}
	case errors.Is(err, registry.ErrRegistryParse):
		c = classification{Kind: KindRegistryLoadFailed, Code: 1, IssueID: issue.RegistryLoadFailedId}
	case errors.Is(err, scaffold.ErrProjectExists):
		c = classification{Kind: KindProjectExists, Code: 1, IssueID: issue.ProjectExistsId}
	case errors.Is(err, buildrun.ErrCommandFailed), errors.Is(err, buildrun.ErrInvalidCommand):
		c = classification{Kind: KindBuildFailed, Code: 1, IssueID: issue.BuildFailedId}
		var failed *buildrun.CommandFailedError
		if errors.As(err, &failed) && !failed.ExitCode.IsSuccess() {
			c.Code = failed.ExitCode
		}
	case errors.Is(err, config.ErrInvalidConfig), isConfigLoadError(err):
		c = classification{Kind: KindConfigLoadFailed, Code: 1, IssueID: issue.ConfigLoadFailedId}
	}

	c.Diagnose = diagnosticOf(err)
	return c
}

// isConfigLoadError recognizes the actionable errors the config package
// builds around file lookup and CUE validation.
func isConfigLoadError(err error) bool {
	var ae *issue.ActionableError
	return errors.As(err, &ae) && strings.HasSuffix(ae.Operation, " configuration")
}

// diagnosticOf extracts raw tool output carried by err.
func diagnosticOf(err error) string {
	var d diagnostic
	if errors.As(err, &d) {
		return d.Diagnostic()
	}
	var unavailable *vcs.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Output
	}
	var checkout *vcs.CheckoutFailedError
	if errors.As(err, &checkout) {
		return checkout.Output
	}
	return ""
}

// failure converts a domain error into the *ExitError returned from RunE.
func failure(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	c := classifyError(err)
	svcErr := newServiceError(err, c.IssueID,
		formatClassified(c, err, verbose, false),
		formatClassified(c, err, verbose, true))
	return &ExitError{Code: c.Code, Err: svcErr}
}

// formatClassified renders "Error [<kind>]: <message>" followed by the raw
// diagnostic indented by two spaces. The plain form has no trailing newline.
func formatClassified(c classification, err error, verbose, styled bool) string {
	head := fmt.Sprintf("Error [%s]:", c.Kind)
	diag := strings.TrimRight(c.Diagnose, "\n")
	if !styled {
		msg := head + " " + formatErrorForDisplay(err, verbose)
		if diag != "" {
			msg += "\n  " + strings.ReplaceAll(diag, "\n", "\n  ")
		}
		return msg
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", ErrorStyle.Render(head), formatErrorForDisplay(err, verbose))
	if diag != "" {
		sb.WriteString(diagnosticStyle.Render(diag))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
