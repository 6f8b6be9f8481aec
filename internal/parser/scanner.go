package parser

import (
	"regexp"
	"strings"
)

var (
	directiveRe = regexp.MustCompile(`^(\s*)\.\.\s+([A-Za-z][\w-]*)::\s*(.*)$`)
	commentRe   = regexp.MustCompile(`^(\s*)\.\.\s+(\S.*?)\s*$`)
	markerArgRe = regexp.MustCompile(`^([A-Za-z][\w-]*):\s*([\w./-]+)$`)
	bareWordRe  = regexp.MustCompile(`^[A-Za-z][\w-]*$`)
	pathRe      = regexp.MustCompile(`^path\s+(\S+)$`)
)

// Marker names with a fixed meaning. The scanner itself is agnostic: it
// yields every marker-shaped comment as a span and the classifier keeps the
// single lookup that gives them meaning, including the configurable target
// and skip marker names.
const (
	markerEnd     = "end"
	markerEndOnly = "endonly"
	markerPath    = "path"
)

// Scanner walks a document's lines and yields directive and marker spans in
// order of appearance. It is deliberately lenient: it never fails, it only
// locates candidates and leaves judgment to the classifier.
type Scanner struct {
	doc *SourceDocument
	pos int // next line index to examine
}

// NewScanner returns a scanner positioned at the top of doc.
func NewScanner(doc *SourceDocument) *Scanner {
	return &Scanner{doc: doc}
}

// Reset rewinds the scanner to the top of the document.
func (s *Scanner) Reset() {
	s.pos = 0
}

// Next returns the next span, or nil when the document is exhausted.
func (s *Scanner) Next() *RawBlockSpan {
	for s.pos < len(s.doc.Lines) {
		line := s.doc.Lines[s.pos]
		lineNo := s.pos + 1
		s.pos++

		if m := directiveRe.FindStringSubmatch(line); m != nil {
			span := &RawBlockSpan{
				Doc:    s.doc,
				Name:   m[2],
				Arg:    strings.TrimSpace(m[3]),
				Indent: indentWidth(m[1]),
				Line:   lineNo,
			}
			if hasBody(span.Name) {
				s.captureBody(span)
			} else {
				span.Terminated = true
			}
			return span
		}

		if m := commentRe.FindStringSubmatch(line); m != nil {
			span := s.markerSpan(m[1], m[2], lineNo)
			if span != nil {
				return span
			}
			// Any other comment is ordinary prose, skip it.
		}
	}
	return nil
}

// hasBody reports whether a directive owns the indented region below it.
// Only these swallow their body; everything else is a bare line, so code
// blocks nested inside note/warning admonitions are still discovered.
func hasBody(name string) bool {
	return name == "code-block" || name == "toctree"
}

// captureBody collects the indented region following the directive. Blank
// lines never terminate a body; the first non-blank line indented at or
// below the directive does, as does an explicit ".. end" marker, which is
// consumed along with the body.
func (s *Scanner) captureBody(span *RawBlockSpan) {
	span.BodyLine = s.pos + 1
	var body []string
	for s.pos < len(s.doc.Lines) {
		line := s.doc.Lines[s.pos]
		if strings.TrimSpace(line) == "" {
			body = append(body, "")
			s.pos++
			continue
		}
		if indentWidth(line) <= span.Indent {
			if m := commentRe.FindStringSubmatch(line); m != nil && m[2] == markerEnd {
				s.pos++ // terminator belongs to this span
			}
			span.Terminated = true
			break
		}
		body = append(body, line)
		s.pos++
	}
	// Surrounding blanks carry no content.
	for len(body) > 0 && body[0] == "" {
		body = body[1:]
		span.BodyLine++
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}
	span.Body = body
}

// markerSpan interprets an ".. <something>" comment as an annotation marker,
// or returns nil for ordinary comments.
func (s *Scanner) markerSpan(indent, text string, lineNo int) *RawBlockSpan {
	span := &RawBlockSpan{
		Doc:        s.doc,
		Indent:     indentWidth(indent),
		Line:       lineNo,
		Terminated: true,
	}
	switch {
	case bareWordRe.MatchString(text):
		span.Name = text
	case markerArgRe.MatchString(text):
		m := markerArgRe.FindStringSubmatch(text)
		span.Name, span.Arg = m[1], m[2]
	case pathRe.MatchString(text):
		m := pathRe.FindStringSubmatch(text)
		span.Name, span.Arg = markerPath, m[1]
	default:
		return nil
	}
	return span
}

// indentWidth measures leading whitespace, counting a tab as a single
// column. Mixed tabs and spaces are tolerated, not validated.
func indentWidth(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}
