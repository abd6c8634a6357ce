// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	SourceNotFoundId Id = iota + 1
	PackagesDirNotFoundId
	ConfigLoadFailedId
	BuildToolNotFoundId
	BuildFailedId
	DestinationNotFoundId
	StageFailedId
	UnknownDestinationId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue markdown with the given glamour style ("dark",
// "light", "notty", or a path to a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	sourceNotFoundIssue = &Issue{
		id: SourceNotFoundId,
		mdMsg: `
# Source repository not found!

The monorepo to sync from does not exist at the given path.

## Things you can try:
- Pass the path explicitly:
~~~
$ sync-packages ~/code/fe-core
~~~
- Set ` + "`source`" + ` in your config file:
~~~cue
source: "~/Documents/nykaa/fe-core"
~~~`,
	}

	packagesDirNotFoundIssue = &Issue{
		id: PackagesDirNotFoundId,
		mdMsg: `
# No packages directory!

The source repository exists but has no ` + "`packages/`" + ` directory.

## Things you can try:
- Make sure the path points at the monorepo root, not at a single package
- If the monorepo keeps packages elsewhere, set ` + "`packages_dir`" + ` in your config file`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config file could not be read or does not match the schema.

## Things you can try:
- Show where the config file is expected:
~~~
$ sync-packages config path
~~~
- Print the defaults and compare:
~~~
$ sync-packages config dump
~~~
- Remove the file to fall back to built-in defaults`,
	}

	buildToolNotFoundIssue = &Issue{
		id: BuildToolNotFoundId,
		mdMsg: `
# Build tool not installed!

A program required by the build steps is not on your PATH.

## Things you can try:
- Install yarn:
~~~
$ npm install -g yarn
~~~
- Skip the build and sync what is already built:
~~~
$ sync-packages --skip-build
~~~`,
		extLinks: []HttpLink{"https://classic.yarnpkg.com/en/docs/install"},
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build failed!

One of the build steps exited with an error. Packages may contain stale output.

## Things you can try:
- Run the failing step by hand in the monorepo to see the full output
- Re-run with ` + "`--verbose`" + `
- Continue anyway with ` + "`--yes`" + ` if the previous build output is good enough`,
	}

	destinationNotFoundIssue = &Issue{
		id: DestinationNotFoundId,
		mdMsg: `
# Destination repository not found!

The selected destination does not exist, so none of the packages were synced to it.

## Things you can try:
- List the configured destinations and whether they exist:
~~~
$ sync-packages destinations
~~~
- Clone the repository to the configured path, or change the path in your config file`,
	}

	stageFailedIssue = &Issue{
		id: StageFailedId,
		mdMsg: `
# Could not stage changes!

Staging the source repository failed. The sync continues without it.

## Things you can try:
- Run ` + "`git status`" + ` in the monorepo and resolve any index lock or conflict
- Skip staging with ` + "`--skip-stage`",
	}

	unknownDestinationIssue = &Issue{
		id: UnknownDestinationId,
		mdMsg: `
# Unknown destination!

A name passed with ` + "`--dest`" + ` is not in the destination catalog.

## Things you can try:
~~~
$ sync-packages destinations
~~~`,
	}

	issues = map[Id]*Issue{
		sourceNotFoundIssue.Id():      sourceNotFoundIssue,
		packagesDirNotFoundIssue.Id(): packagesDirNotFoundIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		buildToolNotFoundIssue.Id():   buildToolNotFoundIssue,
		buildFailedIssue.Id():         buildFailedIssue,
		destinationNotFoundIssue.Id(): destinationNotFoundIssue,
		stageFailedIssue.Id():         stageFailedIssue,
		unknownDestinationIssue.Id():  unknownDestinationIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	vals := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		vals = append(vals, i)
	}
	slices.SortFunc(vals, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return vals
}

func Get(id Id) *Issue {
	return issues[id]
}
