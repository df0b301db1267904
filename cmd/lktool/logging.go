// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/lktool/lktool/internal/config"
)

// newLogger returns a slog logger backed by charmbracelet/log. verbose
// forces debug level.
func newLogger(w io.Writer, level config.LogLevel, verbose bool) *slog.Logger {
	lvl := level.SlogLevel()
	if verbose {
		lvl = slog.LevelDebug
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  log.Level(lvl),
	})
	return slog.New(handler)
}
