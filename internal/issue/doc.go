// SPDX-License-Identifier: MPL-2.0

// Package issue holds the catalog of lktool failure kinds, each with Markdown
// guidance rendered through glamour, and ActionableError for errors that carry
// their own operation, resource and hints.
package issue
