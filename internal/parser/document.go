package parser

// SourceDocument is a single reStructuredText source file. It is read once
// and never mutated afterwards.
type SourceDocument struct {
	Path    string   // Absolute filesystem path
	RelPath string   // Path relative to the source root, used in output comments
	Lines   []string // Raw file content, split into lines
}

// RawBlockSpan locates one directive and its indented body inside a document.
// Spans are produced by the scanner and consumed immediately by the
// classifier; they carry no semantic interpretation of their own.
type RawBlockSpan struct {
	Doc        *SourceDocument
	Name       string // Directive or marker name, e.g. "code-block", "only", "script"
	Arg        string // Directive argument: language tag, distro list, target name
	Indent     int    // Indentation of the directive line
	Line       int    // 1-based line number of the directive line
	Body       []string
	BodyLine   int  // 1-based line number of the first body line
	Terminated bool // False when the body ran to end-of-file without a dedent
}

// CodeBlock is an accepted span with its grouping metadata resolved.
type CodeBlock struct {
	Doc      *SourceDocument
	DocIndex int // Position of Doc in the traversal order
	Line     int // 1-based line of the directive in Doc
	Lang     string
	Body     []string
	Targets  []string // Target names this block's commands belong to
	Skip     bool     // Excluded from output by a no-run marker
	PathHint string   // Config-file path from a preceding path marker, may be empty
	Ordinal  int      // Global discovery order, assigned after the walk merge
}
