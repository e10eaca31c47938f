package streamparse

import (
	"fmt"
	"strings"
)

// MarkerInstructions returns generator-facing instructions documenting the
// exact marker-format grammar. Handed to an upstream model so its output
// parses cleanly; the parser itself stays tolerant regardless.
func MarkerInstructions(projectName, framework string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `When generating a project, emit it in the following format.

Begin with the project metadata block, delimited by a repeated start marker:

%s
name: %s
framework: %s
description: <one line>
%s

Then declare dependencies, one per line, and the entry point:

[DEPENDENCY: <package>@<version>]
[DEPENDENCY: <package>@<version>:dev]
[ENTRY_POINT: </path/to/entry>]

Emit each file between a start and an end marker:

[FILE_START: </path/to/file> lang=<language> category=<category>]
<file content>
%s

Rules:
- Paths start with a slash. One file at a time; always close a file with
  %s before starting the next.
- Markers must appear exactly as shown, each on its own line.
- Never place marker text inside file content.
- Finish the stream with %s
`,
		tokProjectStart, orPlaceholder(projectName, "<project name>"),
		orPlaceholder(framework, "<framework>"),
		tokProjectStart, tokFileEnd, tokFileEnd, tokProjectEnd)
	return b.String()
}

// ArtifactInstructions documents the artifact-format grammar.
func ArtifactInstructions(id, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `When generating a project, wrap it in an artifact tag:

<artifact id="%s" title="%s">
<artifactFile filePath="/path/to/file">
<file content>
%s
</artifact>

Rules:
- One artifactFile tag per file; always close it with %s.
- Name the entry file "main" or "index" so it is picked up as the entry
  point.
- Never nest artifact tags.
`,
		orPlaceholder(id, "<id>"), orPlaceholder(title, "<title>"),
		tagFileClose, tagFileClose)
	return b.String()
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
