// SPDX-License-Identifier: MPL-2.0

// Package scaffold creates new kernel projects from a template.
package scaffold

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/lktool/lktool/internal/fsys"
	"github.com/lktool/lktool/pkg/manifest"
	"github.com/lktool/lktool/pkg/registry"
	"github.com/lktool/lktool/pkg/types"
)

// TopDependency is the dependency name the root module is bound to.
const TopDependency = "top"

//go:embed all:template
var builtinTemplate embed.FS

var (
	// ErrProjectExists is returned when the target directory already exists.
	ErrProjectExists = errors.New("project already exists")
	// ErrInvalidProjectName is returned for names that are not a single path
	// element.
	ErrInvalidProjectName = errors.New("invalid project name")
)

type (
	// Options configures Create.
	Options struct {
		// Name is the project directory and package name.
		Name string
		// Root is the root module looked up in the template's registry.
		Root string
		// ParentDir is where the project directory is created.
		ParentDir types.FilesystemPath
		// TemplateDir replaces the built-in template when set.
		TemplateDir types.FilesystemPath
		// FS performs the template copy. Nil uses the host filesystem.
		FS     fsys.FileSystem
		Logger *slog.Logger
	}

	// Result describes a created project.
	Result struct {
		Dir  types.FilesystemPath
		Root registry.Resolution
	}

	// ProjectExistsError reports the existing directory.
	ProjectExistsError struct {
		Dir types.FilesystemPath
	}

	// InvalidProjectNameError reports the rejected name.
	InvalidProjectNameError struct {
		Name string
	}
)

// Error implements the error interface.
func (e *ProjectExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Dir)
}

// Unwrap returns ErrProjectExists for errors.Is() compatibility.
func (e *ProjectExistsError) Unwrap() error { return ErrProjectExists }

// Error implements the error interface.
func (e *InvalidProjectNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: must be a single directory name", e.Name)
}

// Unwrap returns ErrInvalidProjectName for errors.Is() compatibility.
func (e *InvalidProjectNameError) Unwrap() error { return ErrInvalidProjectName }

// Template returns the built-in project template.
func Template() fs.FS {
	sub, err := fs.Sub(builtinTemplate, "template")
	if err != nil {
		panic(err) // embedded layout is fixed at build time
	}
	return sub
}

// Create copies the template into ParentDir/Name, resolves Root against the
// copied registry and records it as the top dependency. Nothing is left
// behind when any step after the existence check fails.
func Create(_ context.Context, opts Options) (res Result, err error) {
	if err := validateName(opts.Name); err != nil {
		return Result{}, err
	}
	files := opts.FS
	if files == nil {
		files = fsys.OS{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	parent := opts.ParentDir
	if parent == "" {
		parent = "."
	}
	dir := parent.Join(opts.Name)
	exists, err := files.Exists(dir)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, &ProjectExistsError{Dir: dir}
	}

	defer func() {
		if err != nil {
			if rmErr := files.RemoveAll(dir); rmErr != nil {
				log.Warn("failed to remove incomplete project", "dir", dir, "error", rmErr)
			}
		}
	}()

	if opts.TemplateDir != "" {
		log.Debug("copying template", "from", opts.TemplateDir, "to", dir)
		err = files.CopyTree(opts.TemplateDir, dir)
	} else {
		log.Debug("copying built-in template", "to", dir)
		err = os.CopyFS(string(dir), Template())
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to copy template: %w", err)
	}

	root, err := registry.ResolveRoot(dir, opts.Root)
	if err != nil {
		return Result{}, err
	}

	m, err := manifest.Load(dir.Join(manifest.DefaultFileName))
	if err != nil {
		return Result{}, err
	}
	if err = m.SetPackageName(opts.Name); err != nil {
		return Result{}, err
	}
	if err = m.SetDependency(TopDependency, map[string]any{
		"git":     string(root.Location),
		"package": string(root.Name),
	}); err != nil {
		return Result{}, err
	}
	if err = m.Save(); err != nil {
		return Result{}, err
	}

	return Result{Dir: dir, Root: root}, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return &InvalidProjectNameError{Name: name}
	}
	return nil
}
