// SPDX-License-Identifier: MPL-2.0

// Package override binds registry modules to local, editable working copies
// and retires them again.
//
// A binding exists while two facts hold together: the manifest override
// table has an entry for the module's source location, and the location's
// container directory is checked out at the project root. Get creates both,
// Put removes both after checking that the working copy is clean and fully
// pushed. When the two facts disagree the controller reports
// ErrInconsistentOverrideState instead of repairing anything silently.
//
// The controller takes no lock on the manifest. Two invocations against the
// same project can interleave their rewrites and lose one of them.
package override
