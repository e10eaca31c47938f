// Package filetype classifies project file paths into a language, a content
// category, and a suggested preview engine.
//
// Detection is pure and total: every path yields an answer, and the same path
// always yields the same answer. Both the virtual file system and the
// streaming parser call into this package independently, so consistency is
// part of the contract.
package filetype

import (
	"path"
	"strings"
)

// Category is the closed set of content categories a file can belong to.
type Category string

const (
	CategoryComponent     Category = "component"
	CategoryPage          Category = "page"
	CategoryStyle         Category = "style"
	CategoryConfig        Category = "config"
	CategoryScript        Category = "script"
	CategoryPython        Category = "python"
	CategoryData          Category = "data"
	CategoryAsset         Category = "asset"
	CategoryTest          Category = "test"
	CategoryAgent         Category = "agent"
	CategoryWorkflow      Category = "workflow"
	CategoryDocumentation Category = "documentation"
	CategoryOther         Category = "other"
)

// Suggested preview engine identifiers. EngineBundler and EnginePython name
// external engines; only their adapter contract exists in this module.
const (
	EngineNone     = "none"
	EngineHTML     = "html"
	EngineMarkdown = "markdown"
	EngineData     = "data"
	EngineBundler  = "bundler"
	EnginePython   = "python"
)

// Detection is the result of classifying a single path.
type Detection struct {
	Language   string
	Category   Category
	Engine     string
	Confidence float64
}

// extension table for plain-suffix lookup. Compound suffixes (tests) and
// well-known basenames are checked before this table.
var byExtension = map[string]Detection{
	".tsx":      {Language: "typescript", Category: CategoryComponent, Engine: EngineBundler, Confidence: 0.9},
	".jsx":      {Language: "javascript", Category: CategoryComponent, Engine: EngineBundler, Confidence: 0.9},
	".ts":       {Language: "typescript", Category: CategoryScript, Engine: EngineBundler, Confidence: 0.9},
	".js":       {Language: "javascript", Category: CategoryScript, Engine: EngineBundler, Confidence: 0.9},
	".mjs":      {Language: "javascript", Category: CategoryScript, Engine: EngineBundler, Confidence: 0.9},
	".cjs":      {Language: "javascript", Category: CategoryScript, Engine: EngineBundler, Confidence: 0.9},
	".vue":      {Language: "vue", Category: CategoryComponent, Engine: EngineBundler, Confidence: 0.9},
	".svelte":   {Language: "svelte", Category: CategoryComponent, Engine: EngineBundler, Confidence: 0.9},
	".html":     {Language: "html", Category: CategoryPage, Engine: EngineHTML, Confidence: 1},
	".htm":      {Language: "html", Category: CategoryPage, Engine: EngineHTML, Confidence: 1},
	".css":      {Language: "css", Category: CategoryStyle, Engine: EngineNone, Confidence: 0.9},
	".scss":     {Language: "scss", Category: CategoryStyle, Engine: EngineNone, Confidence: 0.9},
	".sass":     {Language: "sass", Category: CategoryStyle, Engine: EngineNone, Confidence: 0.9},
	".less":     {Language: "less", Category: CategoryStyle, Engine: EngineNone, Confidence: 0.9},
	".json":     {Language: "json", Category: CategoryData, Engine: EngineData, Confidence: 0.9},
	".yaml":     {Language: "yaml", Category: CategoryData, Engine: EngineData, Confidence: 0.9},
	".yml":      {Language: "yaml", Category: CategoryData, Engine: EngineData, Confidence: 0.9},
	".toml":     {Language: "toml", Category: CategoryConfig, Engine: EngineData, Confidence: 0.9},
	".csv":      {Language: "csv", Category: CategoryData, Engine: EngineData, Confidence: 0.9},
	".md":       {Language: "markdown", Category: CategoryDocumentation, Engine: EngineMarkdown, Confidence: 1},
	".mdx":      {Language: "markdown", Category: CategoryDocumentation, Engine: EngineMarkdown, Confidence: 0.9},
	".markdown": {Language: "markdown", Category: CategoryDocumentation, Engine: EngineMarkdown, Confidence: 0.9},
	".py":       {Language: "python", Category: CategoryPython, Engine: EnginePython, Confidence: 0.9},
	".svg":      {Language: "svg", Category: CategoryAsset, Engine: EngineHTML, Confidence: 0.9},
	".png":      {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".jpg":      {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".jpeg":     {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".gif":      {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".ico":      {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".webp":     {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".woff":     {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".woff2":    {Language: "binary", Category: CategoryAsset, Engine: EngineNone, Confidence: 0.9},
	".txt":      {Language: "text", Category: CategoryOther, Engine: EngineNone, Confidence: 0.9},
	".sh":       {Language: "shell", Category: CategoryScript, Engine: EngineNone, Confidence: 0.9},
	".go":       {Language: "go", Category: CategoryScript, Engine: EngineNone, Confidence: 0.9},
}

// basenames that are configuration regardless of extension.
var configBasenames = map[string]string{
	"package.json":       "json",
	"package-lock.json":  "json",
	"tsconfig.json":      "json",
	"jsconfig.json":      "json",
	"vite.config.ts":     "typescript",
	"vite.config.js":     "javascript",
	"webpack.config.js":  "javascript",
	"next.config.js":     "javascript",
	"next.config.mjs":    "javascript",
	"tailwind.config.js": "javascript",
	"tailwind.config.ts": "typescript",
	"postcss.config.js":  "javascript",
	".babelrc":           "json",
	".eslintrc":          "json",
	".eslintrc.json":     "json",
	".prettierrc":        "json",
	"dockerfile":         "dockerfile",
	"makefile":           "makefile",
}

// Detect classifies a path. Unknown extensions map to text/other with no
// preview engine and 0.5 confidence.
func Detect(p string) Detection {
	base := path.Base(p)
	lower := strings.ToLower(base)

	// Compound test suffixes win over the plain extension: App.test.tsx is a
	// test, not a component.
	if isTestName(lower) {
		lang := "text"
		if d, ok := byExtension[strings.ToLower(path.Ext(base))]; ok {
			lang = d.Language
		}
		return Detection{Language: lang, Category: CategoryTest, Engine: EngineNone, Confidence: 0.9}
	}

	if lang, ok := configBasenames[lower]; ok {
		return Detection{Language: lang, Category: CategoryConfig, Engine: EngineData, Confidence: 1}
	}

	ext := strings.ToLower(path.Ext(base))
	d, ok := byExtension[ext]
	if !ok {
		return Detection{Language: "text", Category: CategoryOther, Engine: EngineNone, Confidence: 0.5}
	}

	// Directory context refines yaml and markdown classification.
	switch {
	case d.Language == "yaml" && strings.Contains(p, "/workflows/"):
		d.Category = CategoryWorkflow
	case d.Language == "yaml" && strings.HasSuffix(lower, ".agent.yaml"):
		d.Category = CategoryAgent
	case d.Language == "json" && strings.HasSuffix(lower, ".agent.json"):
		d.Category = CategoryAgent
	case d.Category == CategoryComponent && inPagesDir(p):
		d.Category = CategoryPage
	}
	return d
}

// isTestName reports whether the basename carries a .test. or .spec.
// compound suffix (e.g. App.test.tsx, util.spec.js).
func isTestName(lower string) bool {
	return strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec.")
}

func inPagesDir(p string) bool {
	return strings.Contains(p, "/pages/") || strings.Contains(p, "/app/routes/")
}

// IsEntryName reports whether a basename suggests the project entry point
// ("main" or "index" stem). Used by the artifact wire format, which has no
// explicit entry-point declaration.
func IsEntryName(base string) bool {
	stem := strings.ToLower(base)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	return stem == "main" || stem == "index"
}
