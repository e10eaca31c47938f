package preview

import (
	"context"
	"strings"
	"testing"

	"github.com/canvasml/studio/pkg/vfs"
)

func TestData_Preview_PrettyJSON(t *testing.T) {
	f := vfs.New().Create("/config.json", `{"b":1,"a":{"nested":true}}`, nil)
	d := NewData()
	out, err := d.Preview(context.Background(), &Project{Files: []*vfs.File{f}}, f)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(out, "&#34;nested&#34;: true") {
		t.Errorf("output not indented/escaped as expected: %q", out)
	}
}

func TestData_Preview_RepairsTruncatedJSON(t *testing.T) {
	// A partially streamed document: unterminated object.
	f := vfs.New().Create("/data.json", `{"items": [1, 2, 3`, nil)
	d := NewData()
	out, err := d.Preview(context.Background(), &Project{Files: []*vfs.File{f}}, f)
	if err != nil {
		t.Fatalf("Preview on truncated json: %v", err)
	}
	if !strings.Contains(out, "items") {
		t.Errorf("repaired output missing data: %q", out)
	}
}

func TestData_Preview_YAMLRoundTrip(t *testing.T) {
	f := vfs.New().Create("/deploy.yaml", "name: demo\nreplicas: 3\n", nil)
	d := NewData()
	out, err := d.Preview(context.Background(), &Project{Files: []*vfs.File{f}}, f)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(out, "replicas: 3") {
		t.Errorf("yaml content lost: %q", out)
	}
}

func TestHTML_Preview_PicksEntryThenFirstPage(t *testing.T) {
	fs := vfs.New()
	fs.Create("/app.js", "code", nil)
	fs.Create("/index.html", "<p>index</p>", nil)
	p := &Project{Files: fs.Files()}

	h := NewHTML()
	out, err := h.Preview(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if out != "<p>index</p>" {
		t.Errorf("markup = %q, want pass-through of /index.html", out)
	}
}

func TestHTML_Preview_NoDocument(t *testing.T) {
	h := NewHTML()
	if _, err := h.Preview(context.Background(), &Project{}, nil); err == nil {
		t.Error("want error for project without html")
	}
}

func TestMarkdown_RequiresInitialize(t *testing.T) {
	m := NewMarkdown()
	f := vfs.New().Create("/a.md", "# x", nil)
	if _, err := m.Preview(context.Background(), &Project{Files: []*vfs.File{f}}, f); err == nil {
		t.Error("want error before Initialize")
	}
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	out, err := m.Preview(context.Background(), &Project{Files: []*vfs.File{f}}, f)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(out, "<!doctype html>") {
		t.Errorf("output not a full page: %q", out)
	}
}
