package parser

import "fmt"

// Warning is a non-fatal condition noticed while parsing one document.
// Warnings are collected per document and reported in aggregate after the
// run completes.
type Warning struct {
	Doc     string
	Line    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: %s", w.Doc, w.Line, w.Message)
}

// warner accumulates warnings for a single document pass. One warner per
// document keeps parallel scanning free of shared state; the walker merges
// them in traversal order.
type warner struct {
	doc      string
	warnings []Warning
}

func (w *warner) warnf(line int, format string, args ...interface{}) {
	w.warnings = append(w.warnings, Warning{
		Doc:     w.doc,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}
