package streamparse

import (
	"regexp"
	"strings"

	"github.com/canvasml/studio/pkg/vfs"
)

// Artifact-format wire tokens. The project is delimited by an <artifact>
// tag with id/title attributes; each file by an <artifactFile> tag with a
// filePath attribute. There is no dependency or entry-point sub-protocol.
const (
	artifactSig  = "<artifact"
	tagFileOpen  = "<artifactFile"
	tagFileClose = "</artifactFile>"
	tagClose     = "</artifact>"
)

var (
	attrRe = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*"([^"]*)"`)

	// residualTagRe strips complete artifact tags out of finalized content.
	residualTagRe = regexp.MustCompile(`</?artifact(?:File)?(?:\s[^>]*)?>`)
)

// parseAttrs extracts key="value" pairs from a tag body.
func parseAttrs(tag string) map[string]string {
	out := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(tag, -1) {
		out[m[1]] = m[2]
	}
	return out
}

func (p *Parser) scanArtifact() bool {
	switch p.st {
	case stateAwaitingProject:
		return p.scanArtifactProject()
	case stateBetweenFiles:
		return p.scanArtifactBetween()
	case stateInFile:
		return p.scanArtifactInFile()
	}
	return false
}

// scanArtifactProject consumes the opening <artifact ...> tag. A stream that
// leads with a file tag gets an implicit empty project: resynchronizing at
// the file marker beats aborting.
func (p *Parser) scanArtifactProject() bool {
	if strings.HasPrefix(p.buf, tagFileOpen) {
		p.record("artifact stream without project tag, assuming empty project", "")
		p.project = &ProjectInfo{}
		p.st = stateBetweenFiles
		p.emit(Event{Type: EventProjectStart, Project: &ProjectInfo{}})
		return true
	}
	end := strings.IndexByte(p.buf, '>')
	if end < 0 {
		return false
	}
	attrs := parseAttrs(p.buf[:end])
	p.project = &ProjectInfo{ID: attrs["id"], Name: attrs["title"]}
	p.buf = p.buf[end+1:]
	p.st = stateBetweenFiles
	info := *p.project
	p.emit(Event{Type: EventProjectStart, Project: &info})
	return true
}

// artifactTag is one recognized (or partially arrived) tag occurrence.
type artifactTag struct {
	kind       markerKind // reuses mkFileStart / mkFileEnd / mkProjectEnd
	start, end int
	attrs      map[string]string
	pending    bool
}

// nextTag finds the earliest artifact tag in buf. An opening tag whose '>'
// has not arrived yet is returned pending.
func nextTag(buf string) (artifactTag, bool) {
	best := artifactTag{start: -1}

	if i := strings.Index(buf, tagFileClose); i >= 0 {
		best = artifactTag{kind: mkFileEnd, start: i, end: i + len(tagFileClose)}
	}
	if i := strings.Index(buf, tagClose); i >= 0 && (best.start < 0 || i < best.start) {
		best = artifactTag{kind: mkProjectEnd, start: i, end: i + len(tagClose)}
	}
	if i := strings.Index(buf, tagFileOpen); i >= 0 && (best.start < 0 || i < best.start) {
		t := artifactTag{kind: mkFileStart, start: i}
		rest := buf[i:]
		if gt := strings.IndexByte(rest, '>'); gt < 0 {
			t.pending = true
		} else {
			t.end = i + gt + 1
			t.attrs = parseAttrs(rest[:gt])
		}
		best = t
	}
	return best, best.start >= 0
}

// tagTailLen is the artifact-format counterpart of markerTailLen.
func tagTailLen(buf string) int {
	max := 0
	for _, tok := range []string{tagFileOpen, tagFileClose, tagClose} {
		n := len(tok) - 1
		if n > len(buf) {
			n = len(buf)
		}
		for ; n > max; n-- {
			if tok[:n] == buf[len(buf)-n:] {
				max = n
				break
			}
		}
	}
	return max
}

func (p *Parser) scanArtifactBetween() bool {
	t, found := nextTag(p.buf)
	if !found {
		keep := tagTailLen(p.buf)
		p.buf = p.buf[len(p.buf)-keep:]
		return false
	}
	if t.pending {
		p.buf = p.buf[t.start:]
		return false
	}

	switch t.kind {
	case mkFileStart:
		path := strings.TrimSpace(t.attrs["filePath"])
		p.buf = p.buf[t.end:]
		if path == "" {
			p.record("artifact file tag without filePath, skipped", "")
			return true
		}
		p.openNewFile(&openFile{path: vfs.Normalize(path), skipNL: true})
	case mkProjectEnd:
		p.buf = p.buf[t.end:]
		p.completeProject()
	default:
		p.record("unexpected closing file tag, skipped", "")
		p.buf = p.buf[t.end:]
	}
	return true
}

func (p *Parser) scanArtifactInFile() bool {
	t, found := nextTag(p.buf)
	if !found {
		safe := len(p.buf) - tagTailLen(p.buf)
		if safe > 0 {
			p.emitContent(p.buf[:safe])
			p.buf = p.buf[safe:]
		}
		return false
	}
	if t.pending {
		if t.start > 0 {
			p.emitContent(p.buf[:t.start])
			p.buf = p.buf[t.start:]
		}
		return false
	}

	if t.start > 0 {
		p.emitContent(p.buf[:t.start])
		p.buf = p.buf[t.start:]
		t.end -= t.start
		t.start = 0
	}

	switch t.kind {
	case mkFileEnd:
		p.buf = p.buf[t.end:]
		p.finalizeCurrent()
		p.st = stateBetweenFiles
	case mkFileStart:
		p.autoClose("file tag")
	case mkProjectEnd:
		p.autoClose("closing project tag")
	}
	return true
}
