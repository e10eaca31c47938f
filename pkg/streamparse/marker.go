package streamparse

import (
	"regexp"
	"strings"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// Marker-format wire tokens. Literal bracket-delimited ASCII, case-sensitive
// except the end-file marker.
const (
	tokProjectStart = "[PROJECT_START]"
	tokProjectEnd   = "[PROJECT_END]"
	tokFileStart    = "[FILE_START:"
	tokFileEnd      = "[END_FILE]"
	tokDependency   = "[DEPENDENCY:"
	tokEntryPoint   = "[ENTRY_POINT:"
)

// residualMarkerRe strips complete marker tokens out of finalized content as
// a defensive second pass.
var residualMarkerRe = regexp.MustCompile(
	`\[(?:PROJECT_START|PROJECT_END)\]|(?i:\[END_FILE\])|\[(?:FILE_START|DEPENDENCY|ENTRY_POINT):[^\]]*\]`)

type markerKind int

const (
	mkProjectStart markerKind = iota
	mkFileStart
	mkFileEnd
	mkDependency
	mkEntryPoint
	mkProjectEnd
)

func (k markerKind) String() string {
	switch k {
	case mkProjectStart:
		return "project start"
	case mkFileStart:
		return "file start"
	case mkFileEnd:
		return "file end"
	case mkDependency:
		return "dependency"
	case mkEntryPoint:
		return "entry point"
	case mkProjectEnd:
		return "project end"
	}
	return "unknown"
}

// marker is one recognized (or partially arrived) token occurrence.
type marker struct {
	kind       markerKind
	start, end int // byte offsets; end is one past the closing bracket
	payload    string
	pending    bool // token prefix seen but the marker is not complete yet
}

var markerTokens = []struct {
	kind    markerKind
	tok     string
	payload bool
	fold    bool
}{
	{mkProjectStart, tokProjectStart, false, false},
	{mkFileStart, tokFileStart, true, false},
	{mkFileEnd, tokFileEnd, false, true},
	{mkDependency, tokDependency, true, false},
	{mkEntryPoint, tokEntryPoint, true, false},
	{mkProjectEnd, tokProjectEnd, false, false},
}

// nextMarker finds the earliest marker occurrence in buf. A payload marker
// whose closing bracket has not arrived yet is returned pending.
func nextMarker(buf string) (marker, bool) {
	best := marker{start: -1}
	for _, mt := range markerTokens {
		var idx int
		if mt.fold {
			idx = indexFold(buf, mt.tok)
		} else {
			idx = strings.Index(buf, mt.tok)
		}
		if idx < 0 || (best.start >= 0 && idx >= best.start) {
			continue
		}
		m := marker{kind: mt.kind, start: idx, end: idx + len(mt.tok)}
		if mt.payload {
			rest := buf[idx+len(mt.tok):]
			cb := strings.IndexByte(rest, ']')
			if cb < 0 {
				m.pending = true
			} else {
				m.payload = rest[:cb]
				m.end = idx + len(mt.tok) + cb + 1
			}
		}
		best = m
	}
	return best, best.start >= 0
}

// markerTailLen returns the length of the longest buffer suffix that could
// still be the beginning of a marker token. That suffix is withheld from
// content emission until more input resolves it.
func markerTailLen(buf string) int {
	max := 0
	for _, mt := range markerTokens {
		n := len(mt.tok) - 1
		if n > len(buf) {
			n = len(buf)
		}
		for ; n > max; n-- {
			if strings.EqualFold(mt.tok[:n], buf[len(buf)-n:]) {
				max = n
				break
			}
		}
	}
	return max
}

// indexFold is a case-insensitive strings.Index for ASCII tokens.
func indexFold(s, tok string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(tok))
}

func (p *Parser) scanMarker() bool {
	switch p.st {
	case stateAwaitingProject:
		return p.scanMarkerProject()
	case stateBetweenFiles:
		return p.scanMarkerBetween()
	case stateInFile:
		return p.scanMarkerInFile()
	}
	return false
}

// scanMarkerProject waits for the metadata block delimited by the
// twice-repeated project-start marker.
func (p *Parser) scanMarkerProject() bool {
	rest := p.buf[len(tokProjectStart):]
	j := strings.Index(rest, tokProjectStart)
	if j < 0 {
		return false
	}
	p.project = parseProjectMeta(rest[:j])
	p.buf = rest[j+len(tokProjectStart):]
	p.st = stateBetweenFiles
	info := *p.project
	p.emit(Event{Type: EventProjectStart, Project: &info})
	return true
}

// parseProjectMeta reads the key: value lines between the two start markers.
func parseProjectMeta(block string) *ProjectInfo {
	info := &ProjectInfo{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			info.Name = value
		case "framework":
			info.Framework = value
		case "description":
			info.Description = value
		}
	}
	return info
}

func (p *Parser) scanMarkerBetween() bool {
	m, found := nextMarker(p.buf)
	if !found {
		// Text between markers is not content; keep only a tail that might
		// be the start of the next marker.
		keep := markerTailLen(p.buf)
		p.buf = p.buf[len(p.buf)-keep:]
		return false
	}
	if m.pending {
		p.buf = p.buf[m.start:]
		return false
	}

	switch m.kind {
	case mkFileStart:
		f, ok := parseFileStart(m.payload)
		p.buf = p.buf[m.end:]
		if !ok {
			p.record("file start marker with empty path, skipped", m.payload)
			return true
		}
		p.openNewFile(f)
	case mkDependency:
		p.buf = p.buf[m.end:]
		d, err := parseDependency(m.payload)
		if err != nil {
			p.record("dropped malformed dependency: "+err.Error(), m.payload)
			return true
		}
		p.addDependency(d)
	case mkEntryPoint:
		p.buf = p.buf[m.end:]
		p.setEntryPoint(strings.TrimSpace(m.payload))
	case mkProjectEnd:
		p.buf = p.buf[m.end:]
		p.completeProject()
	default:
		// Stray project-start or file-end outside a file: skip and resync.
		p.record("unexpected "+m.kind.String()+" marker, skipped", "")
		p.buf = p.buf[m.end:]
	}
	return true
}

func (p *Parser) scanMarkerInFile() bool {
	m, found := nextMarker(p.buf)
	if !found {
		safe := len(p.buf) - markerTailLen(p.buf)
		if safe > 0 {
			p.emitContent(p.buf[:safe])
			p.buf = p.buf[safe:]
		}
		return false
	}
	if m.pending {
		if m.start > 0 {
			p.emitContent(p.buf[:m.start])
			p.buf = p.buf[m.start:]
		}
		return false
	}

	// Everything up to the marker is content.
	if m.start > 0 {
		p.emitContent(p.buf[:m.start])
		p.buf = p.buf[m.start:]
		m.end -= m.start
		m.start = 0
	}

	switch m.kind {
	case mkFileEnd:
		p.buf = p.buf[m.end:]
		p.finalizeCurrent()
		p.st = stateBetweenFiles
	case mkFileStart, mkProjectStart, mkProjectEnd:
		// Conflicting marker while a file is open: close the file and let
		// the between-files scan consume the marker.
		p.autoClose(m.kind.String() + " marker")
	case mkDependency:
		p.buf = p.buf[m.end:]
		d, err := parseDependency(m.payload)
		if err != nil {
			p.record("dropped malformed dependency: "+err.Error(), m.payload)
			return true
		}
		p.addDependency(d)
	case mkEntryPoint:
		p.buf = p.buf[m.end:]
		p.setEntryPoint(strings.TrimSpace(m.payload))
	}
	return true
}

// parseFileStart reads a file-start payload: a path followed by optional
// lang=, category= and entry attributes.
//
//	/src/App.tsx lang=tsx category=component entry
func parseFileStart(payload string) (*openFile, bool) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return nil, false
	}
	f := &openFile{path: vfs.Normalize(fields[0]), skipNL: true}
	for _, attr := range fields[1:] {
		key, value, _ := strings.Cut(attr, "=")
		switch key {
		case "lang", "language":
			f.language = value
		case "category":
			f.category = filetype.Category(value)
		case "entry":
			f.entry = true
		}
	}
	return f, true
}
