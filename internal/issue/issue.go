// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	CheckoutFailedId
	WorkingCopyDirtyId
	UnpushedChangesId
	VcsUnavailableId
	OverrideTableMissingId
	ManifestParseErrorId
	ManifestWriteErrorId
	InconsistentOverrideStateId
	RegistryLoadFailedId
	ConfigLoadFailedId
	ProjectExistsId
	BuildFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found in the registry!

The module name is looked up in the ` + "`[shared]`" + ` table of your project's
Repo.toml first and in ` + "`[root]`" + ` second.

## Things you can try:
- List the modules the registry knows about:
~~~
$ lktool list
~~~
- Add the module to Repo.toml:
~~~toml
[shared]
axhal = "https://github.com/arceos-org/axhal"
~~~`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	checkoutFailedIssue = &Issue{
		id: CheckoutFailedId,
		mdMsg: `
# Failed to check out the module!

The version-control tool could not clone the module's repository into the
project directory. Any partial checkout has been removed.

## Things you can try:
- Check that the location in Repo.toml is correct and reachable
- Check your credentials for private repositories (prompts are disabled)
- Retry with verbose output:
~~~
$ lktool --verbose get <module>
~~~`,
	}

	workingCopyDirtyIssue = &Issue{
		id: WorkingCopyDirtyId,
		mdMsg: `
# The local working copy has uncommitted changes!

lktool refuses to remove a working copy that still holds work. The status
output above lists the files involved.

## Things you can try:
- Commit and push the changes:
~~~
$ cd <container>
$ git add -A && git commit && git push
~~~
- Or discard them if they are not needed:
~~~
$ git -C <container> checkout -- . && git -C <container> clean -fd
~~~`,
	}

	unpushedChangesIssue = &Issue{
		id: UnpushedChangesId,
		mdMsg: `
# The local working copy has commits that are not pushed!

Removing the working copy now would lose those commits. The diffstat above
shows what is ahead of the upstream branch.

## Things you can try:
- Push the branch:
~~~
$ git -C <container> push
~~~
- Make sure the branch tracks an upstream:
~~~
$ git -C <container> branch --set-upstream-to=origin/main
~~~`,
	}

	vcsUnavailableIssue = &Issue{
		id: VcsUnavailableId,
		mdMsg: `
# The version-control tool is not available!

lktool could not run git, or git could not answer a query about the working
copy (for example because the branch has no upstream).

## Things you can try:
- Install git and make sure it is on your PATH
- Point lktool at a specific binary in your config:
~~~cue
vcs: git_binary: "/usr/local/bin/git"
~~~
- Or use the embedded backend:
~~~cue
vcs: backend: "go-git"
~~~`,
		extLinks: []HttpLink{"https://git-scm.com/downloads"},
	}

	overrideTableMissingIssue = &Issue{
		id: OverrideTableMissingId,
		mdMsg: `
# The manifest has no [patch] table!

lktool expected to find a module override in Cargo.toml but the manifest has
no ` + "`[patch]`" + ` table at all.

## Things you can try:
- Check that you are in the right project directory
- Check that lktool is pointed at the right manifest:
~~~
$ lktool config show
~~~`,
		extLinks: []HttpLink{"https://doc.rust-lang.org/cargo/reference/overriding-dependencies.html"},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse the manifest!

Cargo.toml is not valid TOML, or its ` + "`[patch]`" + ` table does not have the
expected shape. Nothing was changed.

## Expected shape:
~~~toml
[patch."https://github.com/arceos-org/axhal"]
axhal = { path = "axhal" }
~~~`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	manifestWriteErrorIssue = &Issue{
		id: ManifestWriteErrorId,
		mdMsg: `
# Failed to write the manifest!

The updated Cargo.toml could not be written. The previous contents are
unchanged.

## Things you can try:
- Check the permissions of the project directory
- Check that the disk is not full`,
	}

	inconsistentOverrideStateIssue = &Issue{
		id: InconsistentOverrideStateId,
		mdMsg: `
# The override state is inconsistent!

The manifest and the project directory disagree: a working copy exists
without a manifest entry, or a manifest entry points at a missing working
copy. lktool does not lock the project, so this can happen when two lktool
processes ran at once or when files were edited by hand.

## Things you can try:
- Inspect the current state:
~~~
$ lktool status
~~~
- Let lktool clean up the stale half:
~~~
$ lktool put --prune <module>
~~~`,
	}

	registryLoadFailedIssue = &Issue{
		id: RegistryLoadFailedId,
		mdMsg: `
# Failed to load the module registry!

Repo.toml could not be read or is not valid TOML. It must contain string
tables named ` + "`[shared]`" + ` and ` + "`[root]`" + `.

## Things you can try:
- Run lktool from the project root, or pass it with -C
- Check the file with a TOML validator`,
		extLinks: []HttpLink{"https://toml.io/en/v1.0.0"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your lktool configuration file contains errors.

## Things you can try:
- Show the path lktool reads:
~~~
$ lktool config path
~~~
- Write a fresh default file:
~~~
$ lktool config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	projectExistsIssue = &Issue{
		id: ProjectExistsId,
		mdMsg: `
# The project directory already exists!

lktool new never writes into an existing directory.

## Things you can try:
- Choose another name
- Create the project somewhere else:
~~~
$ lktool new --path /tmp myos
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# The build tool failed!

lktool ran the configured build command in the project directory and it
exited with a non-zero status. Its output is shown above.

## Things you can try:
- Run the command yourself to see the full output
- Change the command in your config:
~~~cue
build: command: "make ARCH=riscv64"
~~~`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():            moduleNotFoundIssue,
		checkoutFailedIssue.Id():            checkoutFailedIssue,
		workingCopyDirtyIssue.Id():          workingCopyDirtyIssue,
		unpushedChangesIssue.Id():           unpushedChangesIssue,
		vcsUnavailableIssue.Id():            vcsUnavailableIssue,
		overrideTableMissingIssue.Id():      overrideTableMissingIssue,
		manifestParseErrorIssue.Id():        manifestParseErrorIssue,
		manifestWriteErrorIssue.Id():        manifestWriteErrorIssue,
		inconsistentOverrideStateIssue.Id(): inconsistentOverrideStateIssue,
		registryLoadFailedIssue.Id():        registryLoadFailedIssue,
		configLoadFailedIssue.Id():          configLoadFailedIssue,
		projectExistsIssue.Id():             projectExistsIssue,
		buildFailedIssue.Id():               buildFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
