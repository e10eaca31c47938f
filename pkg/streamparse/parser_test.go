package streamparse

import (
	"strings"
	"testing"
)

const markerDoc = "[PROJECT_START]\n" +
	"name: Demo App\n" +
	"framework: react\n" +
	"description: A demo project\n" +
	"[PROJECT_START]\n" +
	"[DEPENDENCY: left-pad@1.3.0]\n" +
	"[DEPENDENCY: @scope/pkg@^2.0.0:dev]\n" +
	"[ENTRY_POINT: /src/main.tsx]\n" +
	"[FILE_START: /src/main.tsx lang=tsx category=component]\n" +
	"console.log('main')\n" +
	"[END_FILE]\n" +
	"[FILE_START: /src/App.tsx]\n" +
	"export default function App() {\n  return <div>hi</div>\n}\n" +
	"[end_file]\n" +
	"[PROJECT_END]\n"

const artifactDoc = `<artifact id="demo-1" title="Demo">
<artifactFile filePath="/src/main.tsx">
console.log('main')
</artifactFile>
<artifactFile filePath="/src/helpers.ts">
export const x = 1
</artifactFile>
</artifact>`

func collectEvents(p *Parser) *[]Event {
	events := &[]Event{}
	p.OnEvent(func(e Event) { *events = append(*events, e) })
	return events
}

func TestParser_MarkerFormat_WholeDocument(t *testing.T) {
	p := New()
	events := collectEvents(p)
	p.ProcessChunk(markerDoc)

	if !p.Done() {
		t.Fatal("parser should be done after project end")
	}
	if p.Format() != FormatMarker {
		t.Errorf("Format = %v, want marker", p.Format())
	}

	proj := p.Project()
	if proj == nil || proj.Name != "Demo App" || proj.Framework != "react" {
		t.Errorf("project = %+v, want Demo App/react", proj)
	}

	files := p.CompletedFiles()
	if len(files) != 2 {
		t.Fatalf("completed = %d, want 2", len(files))
	}
	if files[0].Path != "/src/main.tsx" || files[1].Path != "/src/App.tsx" {
		t.Errorf("paths = %s, %s", files[0].Path, files[1].Path)
	}
	if files[0].Content != "console.log('main')" {
		t.Errorf("main content = %q", files[0].Content)
	}
	want := "export default function App() {\n  return <div>hi</div>\n}"
	if files[1].Content != want {
		t.Errorf("App content = %q, want %q", files[1].Content, want)
	}
	if !files[0].IsEntryPoint || files[1].IsEntryPoint {
		t.Error("entry point should be /src/main.tsx only")
	}
	if files[0].Language != "tsx" {
		t.Errorf("declared language = %q, want tsx", files[0].Language)
	}

	// Lowercase [end_file] closed the second file: the end marker is
	// case-insensitive.
	last := (*events)[len(*events)-1]
	if last.Type != EventProjectEnd {
		t.Fatalf("last event = %s, want project_end", last.Type)
	}
	if last.Summary.FileCount != 2 {
		t.Errorf("summary file count = %d, want 2", last.Summary.FileCount)
	}
}

// Scenario: one file split across 3 chunks, including a split inside the
// literal END_FILE token. No marker fragment may leak into content.
func TestParser_MarkerFormat_SplitInsideEndMarker(t *testing.T) {
	chunks := []string{
		"[PROJECT_START]\nname: X\n[PROJECT_START]\n[FILE_START: /src/App.tsx]\nconst a = 1\nconst b",
		" = 2\n[END_",
		"FILE]\n[PROJECT_END]",
	}
	p := New()
	for _, c := range chunks {
		p.ProcessChunk(c)
	}

	files := p.CompletedFiles()
	if len(files) != 1 {
		t.Fatalf("completed = %d, want 1", len(files))
	}
	if files[0].Path != "/src/App.tsx" {
		t.Errorf("path = %q", files[0].Path)
	}
	if files[0].Content != "const a = 1\nconst b = 2" {
		t.Errorf("content = %q", files[0].Content)
	}
	if strings.Contains(files[0].Content, "[END_") || strings.Contains(files[0].Content, "FILE]") {
		t.Errorf("marker fragment leaked into content: %q", files[0].Content)
	}
}

// Chunk-boundary invariance: any split of the document yields the same
// completed files as feeding it whole.
func TestParser_ChunkBoundaryInvariance(t *testing.T) {
	docs := map[string]string{"marker": markerDoc, "artifact": artifactDoc}
	for name, doc := range docs {
		whole := New()
		whole.ProcessChunk(doc)
		want := whole.CompletedFiles()

		for _, size := range []int{1, 2, 3, 7, 16} {
			p := New()
			for i := 0; i < len(doc); i += size {
				end := i + size
				if end > len(doc) {
					end = len(doc)
				}
				p.ProcessChunk(doc[i:end])
			}
			got := p.CompletedFiles()
			if len(got) != len(want) {
				t.Fatalf("%s/size=%d: completed = %d, want %d", name, size, len(got), len(want))
			}
			for i := range want {
				if got[i].Path != want[i].Path {
					t.Errorf("%s/size=%d: path[%d] = %q, want %q", name, size, i, got[i].Path, want[i].Path)
				}
				if got[i].Content != want[i].Content {
					t.Errorf("%s/size=%d: content[%d] = %q, want %q", name, size, i, got[i].Content, want[i].Content)
				}
			}
		}
	}
}

func TestParser_ArtifactFormat(t *testing.T) {
	p := New()
	p.ProcessChunk(artifactDoc)

	if p.Format() != FormatArtifact {
		t.Fatalf("Format = %v, want artifact", p.Format())
	}
	proj := p.Project()
	if proj.ID != "demo-1" || proj.Name != "Demo" {
		t.Errorf("project = %+v", proj)
	}

	files := p.CompletedFiles()
	if len(files) != 2 {
		t.Fatalf("completed = %d, want 2", len(files))
	}
	if files[0].Content != "console.log('main')" {
		t.Errorf("main content = %q", files[0].Content)
	}

	// Entry point is inferred from the filename in the artifact format.
	if !files[0].IsEntryPoint {
		t.Error("main.tsx should be the entry point")
	}
	if files[1].IsEntryPoint {
		t.Error("helpers.ts should not be the entry point")
	}
}

func TestParser_Dependencies(t *testing.T) {
	p := New()
	p.ProcessChunk(markerDoc)

	deps := p.Dependencies()
	if deps["left-pad"] != "1.3.0" || len(deps) != 1 {
		t.Errorf("dependencies = %v, want {left-pad: 1.3.0}", deps)
	}
	dev := p.DevDependencies()
	if dev["@scope/pkg"] != "^2.0.0" || len(dev) != 1 {
		t.Errorf("devDependencies = %v, want {@scope/pkg: ^2.0.0}", dev)
	}
}

func TestParser_MalformedDependencyDropped(t *testing.T) {
	doc := "[PROJECT_START]\n[PROJECT_START]\n" +
		"[DEPENDENCY: not a package!!@]\n" +
		"[DEPENDENCY: ok-pkg@1.0.0]\n" +
		"[PROJECT_END]"
	p := New()
	p.ProcessChunk(doc)

	if !p.Done() {
		t.Fatal("malformed dependency must not abort the stream")
	}
	if len(p.Dependencies()) != 1 {
		t.Errorf("dependencies = %v, want only ok-pkg", p.Dependencies())
	}
	if len(p.Errors()) == 0 {
		t.Error("malformed dependency should be recorded")
	}
}

// Two consecutive file starts with no intervening end: the first file is
// auto-closed with everything between the two starts as its content.
func TestParser_AutoCloseOnConflict(t *testing.T) {
	doc := "[PROJECT_START]\n[PROJECT_START]\n" +
		"[FILE_START: /a.txt]\nfirst content\n" +
		"[FILE_START: /b.txt]\nsecond\n[END_FILE]\n" +
		"[PROJECT_END]"
	p := New()
	p.ProcessChunk(doc)

	files := p.CompletedFiles()
	if len(files) != 2 {
		t.Fatalf("completed = %d, want 2", len(files))
	}
	if files[0].Path != "/a.txt" || files[0].Content != "first content" {
		t.Errorf("auto-closed file = %q %q", files[0].Path, files[0].Content)
	}
	if files[1].Path != "/b.txt" || files[1].Content != "second" {
		t.Errorf("second file = %q %q", files[1].Path, files[1].Content)
	}
	if len(p.Errors()) == 0 {
		t.Error("auto-close should be recorded as an anomaly")
	}
}

func TestParser_UnterminatedFileBeforeProjectEnd(t *testing.T) {
	doc := "[PROJECT_START]\n[PROJECT_START]\n" +
		"[FILE_START: /a.txt]\ndangling\n" +
		"[PROJECT_END]"
	p := New()
	p.ProcessChunk(doc)

	files := p.CompletedFiles()
	if len(files) != 1 || files[0].Content != "dangling" {
		t.Fatalf("completed = %+v, want auto-closed /a.txt", files)
	}
	if !p.Done() {
		t.Error("project should complete")
	}
}

// Every file's start precedes its content events, which precede its end.
func TestParser_EventOrdering(t *testing.T) {
	for name, doc := range map[string]string{"marker": markerDoc, "artifact": artifactDoc} {
		p := New()
		events := collectEvents(p)
		// Feed in small chunks to force incremental content emission.
		for i := 0; i < len(doc); i += 5 {
			end := i + 5
			if end > len(doc) {
				end = len(doc)
			}
			p.ProcessChunk(doc[i:end])
		}

		open := ""
		seenEnd := map[string]bool{}
		for _, e := range *events {
			switch e.Type {
			case EventFileStart:
				if open != "" {
					t.Errorf("%s: file_start(%s) while %s open", name, e.Path, open)
				}
				if seenEnd[e.Path] {
					t.Errorf("%s: file_start(%s) after its file_end", name, e.Path)
				}
				open = e.Path
			case EventFileContent:
				if e.Path != open {
					t.Errorf("%s: content for %s while open=%q", name, e.Path, open)
				}
			case EventFileEnd:
				if e.Path != open {
					t.Errorf("%s: file_end(%s) while open=%q", name, e.Path, open)
				}
				seenEnd[e.Path] = true
				open = ""
			}
		}
		if open != "" {
			t.Errorf("%s: file %s never closed", name, open)
		}
	}
}

// Incremental content arrives before the file closes; joined content events
// cover the finalized content.
func TestParser_IncrementalContentEmission(t *testing.T) {
	p := New()
	events := collectEvents(p)

	p.ProcessChunk("[PROJECT_START]\n[PROJECT_START]\n[FILE_START: /a.txt]\npartial content here")

	var got strings.Builder
	for _, e := range *events {
		if e.Type == EventFileContent {
			got.WriteString(e.Content)
		}
	}
	if !strings.HasPrefix(got.String(), "partial content") {
		t.Errorf("no incremental content before file end: %q", got.String())
	}
}

func TestParser_EntryPointAfterFileCompletes(t *testing.T) {
	doc := "[PROJECT_START]\n[PROJECT_START]\n" +
		"[FILE_START: /src/index.js]\nstart()\n[END_FILE]\n" +
		"[ENTRY_POINT: /src/index.js]\n" +
		"[PROJECT_END]"
	p := New()
	p.ProcessChunk(doc)

	files := p.CompletedFiles()
	if len(files) != 1 || !files[0].IsEntryPoint {
		t.Errorf("entry point not back-patched: %+v", files)
	}
	f, _ := p.FS().Get("/src/index.js")
	if !f.IsEntryPoint {
		t.Error("private VFS not back-patched")
	}
}

func TestParser_BracketsInContentSurvive(t *testing.T) {
	doc := "[PROJECT_START]\n[PROJECT_START]\n" +
		"[FILE_START: /a.js]\nconst x = arr[0]\nconst tag = '[NOT_A_MARKER]'\n[END_FILE]\n" +
		"[PROJECT_END]"
	p := New()
	p.ProcessChunk(doc)

	files := p.CompletedFiles()
	if len(files) != 1 {
		t.Fatalf("completed = %d, want 1", len(files))
	}
	want := "const x = arr[0]\nconst tag = '[NOT_A_MARKER]'"
	if files[0].Content != want {
		t.Errorf("content = %q, want %q", files[0].Content, want)
	}
}

func TestParser_PreambleBeforeSignatureSkipped(t *testing.T) {
	doc := "Sure! Here is your project:\n\n" + markerDoc
	p := New()
	p.ProcessChunk(doc)
	if len(p.CompletedFiles()) != 2 {
		t.Errorf("completed = %d, want 2", len(p.CompletedFiles()))
	}
}

func TestParser_ChunkAfterCompletionIgnored(t *testing.T) {
	p := New()
	p.ProcessChunk(markerDoc)
	before := len(p.CompletedFiles())

	p.ProcessChunk("[FILE_START: /late.txt]\nnope\n[END_FILE]")
	if len(p.CompletedFiles()) != before {
		t.Error("chunk after completion must not produce files")
	}
	if len(p.Errors()) == 0 {
		t.Error("late chunk should be recorded")
	}
}

func TestParser_Reset(t *testing.T) {
	p := New()
	p.ProcessChunk(markerDoc)
	p.Reset()

	if p.Done() || p.Format() != FormatUnknown || len(p.CompletedFiles()) != 0 {
		t.Error("Reset did not clear state")
	}
	if p.FS().Len() != 0 {
		t.Error("Reset did not replace the private VFS")
	}

	// A reset parser handles a fresh stream.
	p.ProcessChunk(artifactDoc)
	if len(p.CompletedFiles()) != 2 {
		t.Errorf("completed after reset = %d, want 2", len(p.CompletedFiles()))
	}
}

func TestParser_ListenerPanicContained(t *testing.T) {
	p := New()
	p.OnEvent(func(Event) { panic("listener bug") })
	p.ProcessChunk(markerDoc) // must not panic
	if len(p.CompletedFiles()) != 2 {
		t.Errorf("completed = %d, want 2 despite panicking listener", len(p.CompletedFiles()))
	}
}

func TestParser_PrivateVFSMirrorsCompletedFiles(t *testing.T) {
	p := New()
	p.ProcessChunk(markerDoc)
	fs := p.FS()
	if fs.Len() != 2 {
		t.Fatalf("private VFS has %d files, want 2", fs.Len())
	}
	f, ok := fs.Get("/src/App.tsx")
	if !ok || f.Provenance != "llm" {
		t.Errorf("file = %+v, want llm provenance", f)
	}
}

func TestParser_ArtifactWithoutProjectTag(t *testing.T) {
	doc := `<artifactFile filePath="/solo.txt">
alone
</artifactFile>`
	p := New()
	p.ProcessChunk(doc)

	files := p.CompletedFiles()
	if len(files) != 1 || files[0].Content != "alone" {
		t.Fatalf("completed = %+v, want /solo.txt", files)
	}
	if len(p.Errors()) == 0 {
		t.Error("missing project tag should be recorded")
	}
}
