// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lktool/lktool/internal/buildrun"
	"github.com/lktool/lktool/internal/config"
	"github.com/lktool/lktool/internal/fsys"
	"github.com/lktool/lktool/internal/override"
	"github.com/lktool/lktool/internal/vcs"
	"github.com/lktool/lktool/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and
	// builds its domain objects through it.
	App struct {
		Config config.Provider
		NewVCS VCSFactory
		FS     fsys.FileSystem
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		flags  globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		NewVCS VCSFactory
		FS     fsys.FileSystem
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// VCSFactory builds the VersionControl selected by configuration.
	VCSFactory func(backend vcs.Backend, opts vcs.Options) (vcs.VersionControl, error)

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		verbose    bool
		configPath string
		projectDir string
	}

	// session is the per-invocation state shared by handlers.
	session struct {
		cfg        *config.Config
		cfgPath    string
		projectDir types.FilesystemPath
		verbose    bool
		logger     *slog.Logger
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.NewVCS == nil {
		deps.NewVCS = vcs.New
	}
	if deps.FS == nil {
		deps.FS = fsys.OS{}
	}

	return &App{
		Config: deps.Config,
		NewVCS: deps.NewVCS,
		FS:     deps.FS,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// session loads configuration and resolves the project directory. Load
// failures are returned already classified.
func (a *App) session(ctx context.Context) (*session, error) {
	projectDir, err := filepath.Abs(a.flags.projectDir)
	if err != nil {
		return nil, failure(fmt.Errorf("resolve project directory: %w", err), a.flags.verbose)
	}

	cfg, cfgPath, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		LocalDir:       projectDir,
	})
	if err != nil {
		return nil, failure(err, a.flags.verbose)
	}

	verbose := a.flags.verbose || cfg.UI.Verbose
	s := &session{
		cfg:        cfg,
		cfgPath:    cfgPath,
		projectDir: types.FilesystemPath(projectDir),
		verbose:    verbose,
		logger:     newLogger(a.stderr, cfg.UI.LogLevel, verbose),
	}
	s.logger.Debug("configuration loaded", "path", cfgPath, "project", projectDir)
	return s, nil
}

// projectPath resolves a configured file name against the project directory.
func (s *session) projectPath(name string) types.FilesystemPath {
	if filepath.IsAbs(name) {
		return types.FilesystemPath(name)
	}
	return s.projectDir.Join(name)
}

// controller builds the override controller for the session's project.
func (a *App) controller(s *session) (*override.Controller, error) {
	v, err := a.NewVCS(vcs.Backend(s.cfg.VCS.Backend), vcs.Options{
		GitBinary: s.cfg.VCS.GitBinary,
		Progress:  a.stderr,
	})
	if err != nil {
		return nil, err
	}
	return &override.Controller{
		RegistryPath: s.projectPath(s.cfg.RegistryFile),
		ManifestPath: s.projectPath(s.cfg.ManifestFile),
		ProjectDir:   s.projectDir,
		VCS:          v,
		FS:           a.FS,
		Logger:       s.logger,
	}, nil
}

// runner builds the build tool runner.
func (a *App) runner(s *session) *buildrun.Runner {
	return &buildrun.Runner{Stdin: a.stdin, Logger: s.logger}
}
