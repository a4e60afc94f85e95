// Package codeindex builds a lightweight inventory of an ML repository:
// languages, dependency manifests, documentation excerpts, model artifacts,
// datasets, notebooks and top-level symbols. The inventory feeds the
// drafting prompts; no file content beyond manifests and doc excerpts is kept.
package codeindex

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileEntry describes a single file in the inventory.
type FileEntry struct {
	Path     string // slash-separated, relative to the root
	Language string // classified by file extension
	Size     int64
}

// SymbolEntry is a named symbol (function, type, class) extracted from a file.
type SymbolEntry struct {
	Path   string
	Symbol string
}

// ManifestEntry holds the content of a dependency manifest file.
type ManifestEntry struct {
	Path    string
	Content string
}

// DocKind classifies a documentation file.
type DocKind string

const (
	DocReadme    DocKind = "readme"
	DocLicense   DocKind = "license"
	DocModelCard DocKind = "model_card"
)

// DocEntry is a documentation file with an excerpt of its text. Markdown
// documents keep their headings and the sections relevant to a model card.
type DocEntry struct {
	Path     string
	Kind     DocKind
	Excerpt  string
	Headings []string
}

// Index is the complete inventory of a repository.
type Index struct {
	Root                string
	Files               []FileEntry
	Symbols             []SymbolEntry
	DependencyManifests []ManifestEntry
	Docs                []DocEntry
	Artifacts           []FileEntry // serialized model weights
	Datasets            []FileEntry
	Notebooks           []string
}

const (
	// DefaultSummaryBytes is the Summary budget used when none is given.
	DefaultSummaryBytes = 40_000
	// maxFileSize is the maximum file size read for symbol extraction.
	maxFileSize = 1 << 20
	// maxManifestBytes caps the stored content of one manifest.
	maxManifestBytes = 8 << 10
	// maxExcerptBytes caps the stored excerpt of one documentation file.
	maxExcerptBytes = 4 << 10
)

// ExtractorFunc extracts symbol names from a file's content.
type ExtractorFunc func(content string) []string

// symbolExtractors maps file extensions to their symbol extractors.
var symbolExtractors = map[string]ExtractorFunc{
	".go": extractGoSymbols,
	".py": extractPythonSymbols,
	".rs": extractRustSymbols,
	".ts": extractJSSymbols,
	".js": extractJSSymbols,
}

// isManifest returns true for known dependency manifest file names.
func isManifest(name string) bool {
	switch filepath.Base(name) {
	case "go.mod", "package.json", "requirements.txt", "environment.yml",
		"Cargo.toml", "pyproject.toml", "setup.py", "Pipfile", "pom.xml":
		return true
	}
	return false
}

// docKind classifies documentation files by base name.
func docKind(name string) (DocKind, bool) {
	stem := strings.ToUpper(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	switch stem {
	case "README":
		return DocReadme, true
	case "LICENSE", "LICENCE", "COPYING":
		return DocLicense, true
	case "MODEL_CARD", "MODELCARD":
		return DocModelCard, true
	}
	return "", false
}

var artifactExts = map[string]bool{
	".safetensors": true, ".onnx": true, ".pt": true, ".pth": true, ".ckpt": true,
	".h5": true, ".keras": true, ".pkl": true, ".joblib": true, ".gguf": true,
	".tflite": true, ".pb": true, ".bin": true,
}

var datasetExts = map[string]bool{
	".csv": true, ".tsv": true, ".parquet": true, ".jsonl": true, ".arrow": true,
	".feather": true, ".avro": true,
}

// defaultIgnore is the default set of directory names to skip.
var defaultIgnore = map[string]bool{
	".git":               true,
	"vendor":             true,
	"node_modules":       true,
	"__pycache__":        true,
	".venv":              true,
	"venv":               true,
	".mypy_cache":        true,
	".pytest_cache":      true,
	".ipynb_checkpoints": true,
	"dist":               true,
	"build":              true,
}

// classifyLanguage returns a language label for a file extension.
func classifyLanguage(ext string) string {
	switch ext {
	case ".go":
		return "Go"
	case ".py":
		return "Python"
	case ".ipynb":
		return "Jupyter Notebook"
	case ".r", ".R":
		return "R"
	case ".jl":
		return "Julia"
	case ".rs":
		return "Rust"
	case ".ts", ".tsx":
		return "TypeScript"
	case ".js", ".jsx":
		return "JavaScript"
	case ".java":
		return "Java"
	case ".scala":
		return "Scala"
	case ".c", ".h":
		return "C"
	case ".cpp", ".hpp", ".cc", ".cu":
		return "C++"
	case ".sh", ".bash":
		return "Shell"
	case ".sql":
		return "SQL"
	case ".md":
		return "Markdown"
	default:
		return "Other"
	}
}

// Build walks the directory at root and builds an inventory. exclude holds
// doublestar globs matched against slash-separated paths relative to root;
// a matching directory is skipped entirely.
func Build(root string, exclude []string) (Index, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return Index{}, fmt.Errorf("codeindex: invalid exclude pattern %q", p)
		}
	}
	excluded := func(rel string) bool {
		for _, p := range exclude {
			if ok, _ := doublestar.Match(p, rel); ok {
				return true
			}
		}
		return false
	}

	idx := Index{Root: root}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if defaultIgnore[d.Name()] || excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if excluded(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		ext := strings.ToLower(path.Ext(rel))
		entry := FileEntry{Path: rel, Language: classifyLanguage(ext), Size: info.Size()}
		idx.Files = append(idx.Files, entry)

		switch {
		case isManifest(d.Name()):
			if data, readErr := readHead(p, maxManifestBytes); readErr == nil {
				idx.DependencyManifests = append(idx.DependencyManifests, ManifestEntry{Path: rel, Content: data})
			}
			return nil
		case artifactExts[ext]:
			idx.Artifacts = append(idx.Artifacts, entry)
			return nil
		case datasetExts[ext]:
			idx.Datasets = append(idx.Datasets, entry)
			return nil
		case ext == ".ipynb":
			idx.Notebooks = append(idx.Notebooks, rel)
			return nil
		}

		if kind, ok := docKind(d.Name()); ok {
			if kind == DocLicense {
				if data, readErr := readHead(p, maxExcerptBytes); readErr == nil {
					idx.Docs = append(idx.Docs, DocEntry{Path: rel, Kind: kind, Excerpt: strings.TrimSpace(data)})
				}
				return nil
			}
			if data, readErr := readHead(p, maxFileSize); readErr == nil {
				entry := DocEntry{Path: rel, Kind: kind, Excerpt: Excerpt(data, maxExcerptBytes)}
				for _, s := range SplitSections(data) {
					if s.Heading != "" {
						entry.Headings = append(entry.Headings, s.Heading)
					}
				}
				idx.Docs = append(idx.Docs, entry)
			}
			return nil
		}

		extractor, ok := symbolExtractors[ext]
		if !ok || info.Size() > maxFileSize || isTestFile(d.Name()) {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return nil
		}
		for _, sym := range extractor(string(data)) {
			idx.Symbols = append(idx.Symbols, SymbolEntry{Path: rel, Symbol: sym})
		}
		return nil
	})
	if err != nil {
		return Index{}, fmt.Errorf("codeindex: walk %s: %w", root, err)
	}
	return idx, nil
}

// readHead returns at most n bytes from the start of the file at p.
func readHead(p string, n int) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, int64(n)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// isTestFile returns true for files that follow test-file naming conventions.
func isTestFile(name string) bool {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	switch {
	case strings.HasSuffix(stem, "_test"):
		return true
	case strings.HasPrefix(base, "test_") && ext == ".py":
		return true
	case strings.HasSuffix(stem, ".test"), strings.HasSuffix(stem, ".spec"):
		return true
	}
	return false
}

// Languages returns the languages seen, most files first, ties by name.
// "Other" and "Markdown" are left out.
func (idx Index) Languages() []LanguageCount {
	counts := map[string]int{}
	for _, f := range idx.Files {
		if f.Language == "Other" || f.Language == "Markdown" {
			continue
		}
		counts[f.Language]++
	}
	out := make([]LanguageCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, LanguageCount{Language: l, Files: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Files != out[j].Files {
			return out[i].Files > out[j].Files
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// LanguageCount is the number of files of one language.
type LanguageCount struct {
	Language string
	Files    int
}

// writeInventory appends every section except symbols to sb.
func writeInventory(sb *strings.Builder, idx Index) {
	if langs := idx.Languages(); len(langs) > 0 {
		sb.WriteString("=== Languages ===\n")
		for _, l := range langs {
			fmt.Fprintf(sb, "  %s (%d files)\n", l.Language, l.Files)
		}
	}
	if len(idx.Docs) > 0 {
		sb.WriteString("\n=== Documentation ===\n")
		for _, d := range idx.Docs {
			fmt.Fprintf(sb, "--- %s (%s) ---\n%s\n", d.Path, d.Kind, d.Excerpt)
		}
	}
	if len(idx.DependencyManifests) > 0 {
		sb.WriteString("\n=== Dependency Manifests ===\n")
		for _, m := range idx.DependencyManifests {
			fmt.Fprintf(sb, "--- %s ---\n%s\n", m.Path, strings.TrimRight(m.Content, "\n"))
		}
	}
	if len(idx.Artifacts) > 0 {
		sb.WriteString("\n=== Model Artifacts ===\n")
		for _, a := range idx.Artifacts {
			fmt.Fprintf(sb, "  %s (%d bytes)\n", a.Path, a.Size)
		}
	}
	if len(idx.Datasets) > 0 {
		sb.WriteString("\n=== Datasets ===\n")
		for _, ds := range idx.Datasets {
			fmt.Fprintf(sb, "  %s (%d bytes)\n", ds.Path, ds.Size)
		}
	}
	if len(idx.Notebooks) > 0 {
		sb.WriteString("\n=== Notebooks ===\n")
		for _, n := range idx.Notebooks {
			fmt.Fprintf(sb, "  %s\n", n)
		}
	}
}

const symbolSectionHeader = "\n=== Symbols ===\n"

// Summary produces a text block for prompt context of at most maxBytes
// (DefaultSummaryBytes when maxBytes <= 0). Symbols are pruned first; if the
// rest still does not fit it is cut at a line boundary.
func (idx Index) Summary(maxBytes int) string {
	if maxBytes <= 0 {
		maxBytes = DefaultSummaryBytes
	}
	var inv strings.Builder
	writeInventory(&inv, idx)
	head := inv.String()

	const truncationNotice = "[TRUNCATED: %d symbols omitted to fit context limit]\n"
	reserved := len(symbolSectionHeader) + 80
	if len(head)+reserved > maxBytes {
		cut := strings.LastIndex(head[:max(0, maxBytes-reserved)], "\n")
		if cut < 0 {
			cut = 0
		}
		slog.Default().Warn("codeindex: summary truncated", "bytes", len(head), "limit", maxBytes)
		return head[:cut] + "\n" + fmt.Sprintf(truncationNotice, len(idx.Symbols))
	}

	var sb strings.Builder
	sb.WriteString(head)
	if len(idx.Symbols) == 0 {
		return sb.String()
	}
	sb.WriteString(symbolSectionHeader)
	budget := maxBytes - len(head) - reserved
	kept, used := 0, 0
	for _, s := range idx.Symbols {
		line := fmt.Sprintf("  %s: %s\n", s.Path, s.Symbol)
		if used+len(line) > budget {
			break
		}
		sb.WriteString(line)
		used += len(line)
		kept++
	}
	if omitted := len(idx.Symbols) - kept; omitted > 0 {
		slog.Default().Warn("codeindex: summary truncated", "symbols_omitted", omitted, "limit", maxBytes)
		fmt.Fprintf(&sb, truncationNotice, omitted)
	}
	return sb.String()
}

// ── Go ────────────────────────────────────────────────────────────────────────

var (
	goFuncRe   = regexp.MustCompile(`(?m)^func\s+(\w+)\s*\(`)
	goMethodRe = regexp.MustCompile(`(?m)^func\s+\([^)]+\)\s+(\w+)\s*\(`)
	goTypeRe   = regexp.MustCompile(`(?m)^type\s+(\w+)\s+(?:struct|interface)`)
)

func extractGoSymbols(content string) []string {
	return extractAll(content, goFuncRe, goMethodRe, goTypeRe)
}

// ── Python ────────────────────────────────────────────────────────────────────

var (
	pyFuncRe  = regexp.MustCompile(`(?m)^def\s+(\w+)\s*\(`)
	pyClassRe = regexp.MustCompile(`(?m)^class\s+(\w+)`)
)

func extractPythonSymbols(content string) []string {
	return extractAll(content, pyFuncRe, pyClassRe)
}

// ── Rust ──────────────────────────────────────────────────────────────────────

var (
	rustFnRe     = regexp.MustCompile(`(?m)\bfn\s+(\w+)\s*\(`)
	rustStructRe = regexp.MustCompile(`(?m)\bstruct\s+(\w+)`)
)

func extractRustSymbols(content string) []string {
	return extractAll(content, rustFnRe, rustStructRe)
}

// ── JavaScript / TypeScript ───────────────────────────────────────────────────

var (
	jsFuncRe  = regexp.MustCompile(`(?m)\bfunction\s+(\w+)\s*\(`)
	jsClassRe = regexp.MustCompile(`(?m)\bclass\s+(\w+)`)
)

func extractJSSymbols(content string) []string {
	return extractAll(content, jsFuncRe, jsClassRe)
}

// extractAll returns the first capture group of every match, deduplicated in
// order of first appearance.
func extractAll(content string, res ...*regexp.Regexp) []string {
	seen := make(map[string]bool)
	var out []string
	for _, re := range res {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if name := m[1]; !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}
