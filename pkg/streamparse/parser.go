// Package streamparse incrementally reconstructs a multi-file project from a
// token-by-token text stream.
//
// Two mutually exclusive wire formats are auto-detected from the earliest
// unambiguous signature: a bracket-marker protocol and a tag-based artifact
// protocol. Chunk boundaries are protocol-irrelevant; a marker split across
// chunks is withheld from content until more input resolves it, so marker
// fragments never leak into finalized files.
//
// The parser never panics mid-stream. Malformed input degrades: unrecognized
// fragments are skipped, anomalies land in a bounded error log, and scanning
// resynchronizes at the next recognizable marker. A partially correct project
// is strictly preferred over an aborted stream.
package streamparse

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/ring"
	"github.com/canvasml/studio/pkg/vfs"
)

// Format identifies the wire format committed to after sniffing.
type Format int

const (
	FormatUnknown Format = iota
	FormatMarker
	FormatArtifact
)

func (f Format) String() string {
	switch f {
	case FormatMarker:
		return "marker"
	case FormatArtifact:
		return "artifact"
	default:
		return "unknown"
	}
}

type state int

const (
	stateAwaitingFormat state = iota
	stateAwaitingProject
	stateBetweenFiles
	stateInFile
	stateComplete
)

// errorLogSize bounds the parser's anomaly log; oldest entries are evicted.
const errorLogSize = 100

// openFile accumulates an in-progress file between file_start and file_end.
type openFile struct {
	path     string
	language string
	category filetype.Category
	entry    bool
	skipNL   bool // drop the protocol newline right after the start marker
	chunks   []string
}

// Parser is a single-stream incremental parser. One instance per stream;
// calls are expected from one goroutine (the transport delivering chunks).
type Parser struct {
	format Format
	st     state
	buf    string

	project    *ProjectInfo
	current    *openFile
	completed  []*vfs.File
	deps       map[string]string
	devDeps    map[string]string
	entryPoint string

	fs        *vfs.FS
	errs      *ring.Ring[ParseError]
	listeners []func(Event)
}

// New creates a parser with a fresh private VFS.
func New() *Parser {
	return &Parser{
		deps:    make(map[string]string),
		devDeps: make(map[string]string),
		fs:      vfs.New(),
		errs:    ring.N[ParseError](errorLogSize),
	}
}

// OnEvent registers a synchronous per-event listener. Listeners are invoked
// in emission order; a panicking listener is logged and never propagates.
func (p *Parser) OnEvent(fn func(Event)) {
	p.listeners = append(p.listeners, fn)
}

// ProcessChunk feeds the next slice of stream text. Chunk size and alignment
// carry no protocol meaning: feeding a document byte-by-byte or whole yields
// the same completed files and the same event sequence.
func (p *Parser) ProcessChunk(text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("streamparse: recovered mid-stream", "panic", r)
			p.record(fmt.Sprintf("internal error: %v", r), "")
		}
	}()

	if p.st == stateComplete {
		p.record("chunk received after project end, ignored", text)
		return
	}
	p.buf += text

	if p.st == stateAwaitingFormat && !p.sniff() {
		return
	}

	// Fixed-point scan: multiple complete markers may arrive in one chunk.
	for {
		var progress bool
		switch p.format {
		case FormatMarker:
			progress = p.scanMarker()
		case FormatArtifact:
			progress = p.scanArtifact()
		}
		if !progress || p.st == stateComplete {
			return
		}
	}
}

// sniff commits to a format from the earliest unambiguous signature.
// Preamble text before the signature is discarded.
func (p *Parser) sniff() bool {
	im := strings.Index(p.buf, tokProjectStart)
	ia := strings.Index(p.buf, artifactSig)

	switch {
	case im >= 0 && (ia < 0 || im < ia):
		p.format = FormatMarker
		p.buf = p.buf[im:]
	case ia >= 0 && (im < 0 || ia < im):
		p.format = FormatArtifact
		p.buf = p.buf[ia:]
	default:
		return false
	}
	slog.Debug("streamparse: format detected", "format", p.format.String())
	p.st = stateAwaitingProject
	return true
}

// emitContent routes safe content into the open file and out as a
// file_content event. Previews update from these before the file closes.
func (p *Parser) emitContent(s string) {
	f := p.current
	if f.skipNL {
		switch {
		case strings.HasPrefix(s, "\r\n"):
			s = s[2:]
			f.skipNL = false
		case strings.HasPrefix(s, "\n"):
			s = s[1:]
			f.skipNL = false
		case s == "\r":
			// Half of a split CRLF; wait for the other half.
			return
		default:
			f.skipNL = false
		}
	}
	if s == "" {
		return
	}
	f.chunks = append(f.chunks, s)
	p.emit(Event{Type: EventFileContent, Path: f.path, Content: s})
}

// finalizeCurrent closes the open file: join chunks, trim the protocol
// newline, strip any residual marker substrings that slipped through, re-run
// detection, record into completedFiles and the private VFS.
func (p *Parser) finalizeCurrent() {
	f := p.current
	p.current = nil

	content := strings.Join(f.chunks, "")
	content = trimProtocolTail(content)
	content = p.stripResidualMarkers(content)

	det := filetype.Detect(f.path)
	lang := f.language
	if lang == "" {
		lang = det.Language
	}
	cat := f.category
	if cat == "" {
		cat = det.Category
	}
	entry := f.entry
	if p.entryPoint != "" && p.entryPoint == vfs.Normalize(f.path) {
		entry = true
	}
	if p.format == FormatArtifact && filetype.IsEntryName(vfs.Basename(f.path)) {
		entry = true
	}

	file := p.fs.Create(f.path, content, &vfs.CreateOptions{
		Language:     lang,
		Category:     cat,
		IsEntryPoint: entry,
		Provenance:   vfs.ProvenanceLLM,
	})
	p.completed = append(p.completed, file)
	p.emit(Event{Type: EventFileEnd, Path: file.Path, File: file.Clone()})
}

// autoClose finalizes an unterminated file when a conflicting marker shows
// up. Recovery heuristic, not protocol: a missing end marker can silently
// hand trailing content to the next file, so it is logged loudly.
func (p *Parser) autoClose(reason string) {
	slog.Warn("streamparse: auto-closing unterminated file",
		"path", p.current.path, "reason", reason)
	p.record("auto-closed unterminated file "+p.current.path+" on "+reason, "")
	p.finalizeCurrent()
	p.st = stateBetweenFiles
}

func (p *Parser) openNewFile(f *openFile) {
	p.current = f
	p.st = stateInFile
	p.emit(Event{Type: EventFileStart, Path: f.path})
}

// addDependency records a validated declaration and emits its event.
func (p *Parser) addDependency(d *Dependency) {
	if d.Dev {
		p.devDeps[d.Name] = d.Version
	} else {
		p.deps[d.Name] = d.Version
	}
	p.emit(Event{Type: EventDependency, Dependency: d})
}

// setEntryPoint records the declared entry path and back-patches the file if
// it already completed.
func (p *Parser) setEntryPoint(path string) {
	p.entryPoint = vfs.Normalize(path)
	entry := true
	if _, ok := p.fs.ApplyPatch(p.entryPoint, vfs.Patch{IsEntryPoint: &entry}); ok {
		for _, f := range p.completed {
			if f.Path == p.entryPoint {
				f.IsEntryPoint = true
			}
		}
	}
}

// completeProject emits the summary. State is not reset: Reset is separate
// and explicit, and the completed files stay queryable.
func (p *Parser) completeProject() {
	if p.current != nil {
		p.autoClose("project end")
	}
	p.st = stateComplete
	p.emit(Event{Type: EventProjectEnd, Summary: &Summary{
		FileCount: len(p.completed),
		TotalSize: p.fs.TotalSize(),
	}})
}

func (p *Parser) emit(e Event) {
	e.At = time.Now()
	for _, fn := range p.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("streamparse: event listener panicked", "panic", r)
				}
			}()
			fn(e)
		}()
	}
}

func (p *Parser) record(msg, fragment string) {
	if len(fragment) > 120 {
		fragment = fragment[:120]
	}
	slog.Warn("streamparse: " + msg)
	p.errs.Add(ParseError{At: time.Now(), Message: msg, Fragment: fragment})
}

// Reset returns the parser to its initial state with a fresh private VFS.
// Registered listeners are kept.
func (p *Parser) Reset() {
	p.format = FormatUnknown
	p.st = stateAwaitingFormat
	p.buf = ""
	p.project = nil
	p.current = nil
	p.completed = nil
	p.deps = make(map[string]string)
	p.devDeps = make(map[string]string)
	p.entryPoint = ""
	p.fs = vfs.New()
	p.errs.Reset()
}

// Format returns the committed wire format.
func (p *Parser) Format() Format { return p.format }

// Done reports whether project_end has been seen.
func (p *Parser) Done() bool { return p.st == stateComplete }

// Project returns a copy of the project metadata, if seen.
func (p *Parser) Project() *ProjectInfo {
	if p.project == nil {
		return nil
	}
	c := *p.project
	return &c
}

// CompletedFiles returns copies of finalized files in arrival order.
func (p *Parser) CompletedFiles() []*vfs.File {
	out := make([]*vfs.File, len(p.completed))
	for i, f := range p.completed {
		out[i] = f.Clone()
	}
	return out
}

// FS returns the parser's private VFS. Callers mirror it into their own
// store; the parser keeps ownership.
func (p *Parser) FS() *vfs.FS { return p.fs }

// Dependencies returns a copy of the runtime dependency map.
func (p *Parser) Dependencies() map[string]string { return copyMap(p.deps) }

// DevDependencies returns a copy of the dev dependency map.
func (p *Parser) DevDependencies() map[string]string { return copyMap(p.devDeps) }

// EntryPoint returns the declared entry path (marker format only).
func (p *Parser) EntryPoint() string { return p.entryPoint }

// Errors returns the recorded anomalies, oldest first.
func (p *Parser) Errors() []ParseError { return p.errs.Items() }

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// trimProtocolTail drops the single newline that separates content from the
// closing marker.
func trimProtocolTail(s string) string {
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}

func (p *Parser) stripResidualMarkers(s string) string {
	if p.format == FormatArtifact {
		return residualTagRe.ReplaceAllString(s, "")
	}
	return residualMarkerRe.ReplaceAllString(s, "")
}
