// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ToolNotFoundId Id = iota + 1
	ArchiveNotFoundId
	PortInUseId
	PortAlreadyTrackedId
	ServerNotRunningId
	ConfigLoadFailedId
	GenerateFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // documentation links for this issue type
	extLinks []HttpLink  // external links that might be useful for the user
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
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# External tool not found

A required command-line tool could not be located on your PATH.

## Things you can try:
- Install the missing tool and make sure its directory is on PATH
- Point at an explicit binary in your config file:
~~~cue
tools: {
	pmtiles:    "/usr/local/bin/pmtiles"
	tippecanoe: "/usr/local/bin/tippecanoe"
}
~~~
- Verify the install:
~~~
$ pmtiles version
$ tippecanoe --version
~~~`,
		extLinks: []HttpLink{
			"https://github.com/protomaps/go-pmtiles",
			"https://github.com/felt/tippecanoe",
		},
	}

	archiveNotFoundIssue = &Issue{
		id: ArchiveNotFoundId,
		mdMsg: `
# Archive not found

The tile archive you asked for does not exist or is not readable.

## Things you can try:
- Check the path for typos:
~~~
$ ls -lh path/to/archive.pmtiles
~~~
- Generate an archive from feature data first:
~~~
$ tilebridge generate -o world.pmtiles features.geojson
~~~
- For remote archives, pass the bucket URI with --bucket`,
	}

	portInUseIssue = &Issue{
		id: PortInUseId,
		mdMsg: `
# Port already in use

Another process is listening on the requested port, so the server
could not bind.

## Things you can try:
- Find out who owns the port:
~~~
$ lsof -i :8080
~~~
- Pick another port:
~~~
$ tilebridge serve --port 8081 ./tiles
~~~
- If the owner is a previous tilebridge server, stop it:
~~~
$ tilebridge stop 8080
~~~`,
	}

	portAlreadyTrackedIssue = &Issue{
		id: PortAlreadyTrackedId,
		mdMsg: `
# Port already tracked

A server managed by this process is already running on the requested
port. Starting a second one there would orphan the first.

## Things you can try:
- List running servers:
~~~
$ tilebridge status
~~~
- Stop the existing server first:
~~~
$ tilebridge stop <port>
~~~
- Or choose a different port with --port`,
	}

	serverNotRunningIssue = &Issue{
		id: ServerNotRunningId,
		mdMsg: `
# No server on that port

There is no tracked server running on the port you tried to stop.
Servers started by other processes are not tracked here.

## Things you can try:
- List tracked servers:
~~~
$ tilebridge status
~~~
- If the port is held by an unrelated process, stop it directly`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

Your config file exists but could not be parsed or validated.

## Things you can try:
- Check the reported line for CUE syntax errors
- Compare against a fresh default config:
~~~
$ tilebridge config init
$ tilebridge config show
~~~
- Remove the file to fall back to built-in defaults`,
		extLinks: []HttpLink{
			"https://cuelang.org/docs/",
		},
	}

	generateFailedIssue = &Issue{
		id: GenerateFailedId,
		mdMsg: `
# Tile generation failed

The tile-generation tool exited with an error. Its stderr output above
usually names the offending feature or flag.

## Things you can try:
- Validate the input GeoJSON:
~~~
$ jq empty features.geojson
~~~
- Let the tool pick a max zoom and thin dense tiles:
~~~
$ tilebridge generate -o out.pmtiles --guess-maxzoom --drop-densest features.geojson
~~~
- Pass --force if the output archive already exists`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

A file or directory could not be accessed with the current user's
permissions.

## Things you can try:
- Check ownership and mode bits:
~~~
$ ls -l path/to/file
~~~
- Serve from a directory your user can read
- Write generated archives to a directory your user can write`,
	}

	issues = map[Id]*Issue{
		toolNotFoundIssue.Id():       toolNotFoundIssue,
		archiveNotFoundIssue.Id():    archiveNotFoundIssue,
		portInUseIssue.Id():          portInUseIssue,
		portAlreadyTrackedIssue.Id(): portAlreadyTrackedIssue,
		serverNotRunningIssue.Id():   serverNotRunningIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		generateFailedIssue.Id():     generateFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
