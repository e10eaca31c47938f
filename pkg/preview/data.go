package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonrepair"

	"github.com/canvasml/studio/pkg/filetype"
	"github.com/canvasml/studio/pkg/vfs"
)

// Data pretty-prints structured data files. JSON that fails to parse is run
// through jsonrepair first, so partially streamed documents still render.
type Data struct{}

// NewData creates the data pretty-printer adapter.
func NewData() *Data { return &Data{} }

func (*Data) ID() string { return filetype.EngineData }

func (*Data) Supports() Support {
	return Support{
		Categories: []filetype.Category{filetype.CategoryData, filetype.CategoryConfig},
		Extensions: []string{".json", ".yaml", ".yml", ".toml", ".csv"},
	}
}

func (*Data) Initialize(context.Context) error { return nil }

func (d *Data) Preview(_ context.Context, p *Project, active *vfs.File) (string, error) {
	f := d.pick(p, active)
	if f == nil {
		return "", errors.New("no data document in project")
	}
	pretty, err := prettyData(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(dataPage, html.EscapeString(f.Name), html.EscapeString(pretty)), nil
}

func (d *Data) Update(ctx context.Context, p *Project, changed []*vfs.File) (string, error) {
	for _, f := range changed {
		if d.Supports().HasExtension(path.Ext(f.Path)) {
			return d.Preview(ctx, p, f)
		}
	}
	return d.Preview(ctx, p, nil)
}

func (*Data) Destroy() error { return nil }

func (d *Data) pick(p *Project, active *vfs.File) *vfs.File {
	sup := d.Supports()
	ok := func(f *vfs.File) bool {
		return f != nil &&
			(sup.HasExtension(strings.ToLower(path.Ext(f.Path))) || sup.HasCategory(f.Category))
	}
	if ok(active) {
		return active
	}
	for _, f := range p.Files {
		if ok(f) {
			return f
		}
	}
	return nil
}

// prettyData normalizes the file's content for display. Unknown formats pass
// through untouched.
func prettyData(f *vfs.File) (string, error) {
	switch strings.ToLower(path.Ext(f.Path)) {
	case ".json":
		return prettyJSON(f.Content)
	case ".yaml", ".yml":
		return prettyYAML(f.Content)
	default:
		return f.Content, nil
	}
}

// prettyJSON re-indents JSON, repairing it first when it does not parse.
func prettyJSON(content string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		fixed, rerr := jsonrepair.JSONRepair(content)
		if rerr != nil {
			return "", fmt.Errorf("json repair: %w", rerr)
		}
		if err := json.Unmarshal([]byte(fixed), &v); err != nil {
			return "", fmt.Errorf("json parse after repair: %w", err)
		}
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// prettyYAML round-trips YAML for normalized indentation; on parse failure
// the raw content is shown as-is.
func prettyYAML(content string) (string, error) {
	var v any
	if err := yaml.Unmarshal([]byte(content), &v); err != nil {
		return content, nil
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return content, nil
	}
	return string(out), nil
}

const dataPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body{margin:2rem auto;max-width:60rem;padding:0 1rem}
pre{font-family:ui-monospace,SFMono-Regular,monospace;line-height:1.5;overflow-x:auto}
</style>
</head>
<body>
<pre><code>%s</code></pre>
</body>
</html>
`
