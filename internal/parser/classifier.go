package parser

import (
	"fmt"
	"strings"
)

// shellPrompts are the prompt decorations that make an unaccepted block
// "look like shell" for the heuristic-mismatch warning, and that the
// normalizer strips from accepted blocks.
var shellPrompts = []string{"mysql> ", "$ ", "# ", "> "}

// classifier turns the span stream of one document into CodeBlocks. It keeps
// the per-document annotation state: the open distro region and any pending
// script / no-run / path markers waiting for the next code block.
type classifier struct {
	opts Options
	doc  *SourceDocument
	warn *warner

	region     []string // targets of the open only-region, nil when closed
	regionName string

	pendingScript string
	scriptLine    int
	pendingSkip   bool
	skipLine      int
	pendingPath   string
}

// classifyDocument scans doc and returns its accepted code blocks in order
// of appearance. Ordinals are not assigned here; the walker owns the global
// counter.
func classifyDocument(doc *SourceDocument, docIndex int, opts Options) ([]*CodeBlock, []Warning, error) {
	c := &classifier{
		opts: opts,
		doc:  doc,
		warn: &warner{doc: doc.RelPath},
	}

	var blocks []*CodeBlock
	sc := NewScanner(doc)
	for span := sc.Next(); span != nil; span = sc.Next() {
		switch span.Name {
		case "code-block":
			block, err := c.classifyCodeBlock(span, docIndex)
			if err != nil {
				return nil, c.warn.warnings, err
			}
			if block != nil {
				blocks = append(blocks, block)
			}
		case "only":
			c.openRegion(span)
		case markerEndOnly:
			c.closeRegion(span)
		case opts.targetMarker():
			if span.Arg == "" {
				c.warn.warnf(span.Line, "%s marker without a target name", opts.targetMarker())
				break
			}
			c.pendingScript = span.Arg
			c.scriptLine = span.Line
		case opts.skipMarker():
			c.pendingSkip = true
			c.skipLine = span.Line
		case markerPath:
			if span.Arg != "" {
				c.pendingPath = span.Arg
			}
		case markerEnd:
			c.warn.warnf(span.Line, "stray end marker with no open code block")
		default:
			// Unrelated directive or comment (note, image, toctree, ...): not ours.
		}
	}
	if c.region != nil {
		c.warn.warnf(len(doc.Lines), "only-region %q never closed", c.regionName)
	}
	return blocks, c.warn.warnings, nil
}

func (c *classifier) classifyCodeBlock(span *RawBlockSpan, docIndex int) (*CodeBlock, error) {
	script, skip, path := c.takePending(span)

	lang := strings.ToLower(span.Arg)
	if !c.opts.accepted(lang) {
		if looksLikeShell(span.Body) {
			c.warn.warnf(span.Line, "code block tagged %q but its body looks like shell commands", span.Arg)
		}
		return nil, nil
	}

	if !span.Terminated {
		if c.opts.Strict {
			return nil, fmt.Errorf("%s:%d: %w", c.doc.RelPath, span.Line, ErrMissingEnd)
		}
		c.warn.warnf(span.Line, "code block runs to end of file without a closing dedent")
	}
	if len(span.Body) == 0 {
		c.warn.warnf(span.Line, "code block has an empty body")
		return nil, nil
	}
	for i, line := range span.Body {
		if directiveRe.MatchString(line) {
			c.warn.warnf(span.BodyLine+i, "directive nested inside a code block body, kept as text")
		}
	}

	targets := []string{c.opts.DefaultTarget}
	switch {
	case script != "" && c.region != nil:
		return nil, &TargetConflictError{
			Doc:    c.doc.RelPath,
			Line:   span.Line,
			Marker: script,
			Region: c.regionName,
		}
	case script != "":
		targets = []string{script}
	case c.region != nil:
		targets = append([]string(nil), c.region...)
	}

	return &CodeBlock{
		Doc:      c.doc,
		DocIndex: docIndex,
		Line:     span.Line,
		Lang:     lang,
		Body:     append([]string(nil), span.Body...),
		Targets:  targets,
		Skip:     skip,
		PathHint: path,
	}, nil
}

// takePending consumes the markers waiting for this block. Script and
// no-run markers must sit immediately above the directive (blank lines
// between are fine); a marker separated by prose is dropped with a warning.
// Path hints follow the looser original convention: they stick until the
// next code block regardless of distance.
func (c *classifier) takePending(span *RawBlockSpan) (script string, skip bool, path string) {
	if c.pendingScript != "" {
		if c.blankBetween(c.scriptLine, span.Line) {
			script = c.pendingScript
		} else {
			c.warn.warnf(c.scriptLine, "script marker %q is not attached to a code block", c.pendingScript)
		}
		c.pendingScript = ""
	}
	if c.pendingSkip {
		if c.blankBetween(c.skipLine, span.Line) {
			skip = true
		} else {
			c.warn.warnf(c.skipLine, "no-run marker is not attached to a code block")
		}
		c.pendingSkip = false
	}
	path = c.pendingPath
	c.pendingPath = ""
	return script, skip, path
}

// blankBetween reports whether every line strictly between the two 1-based
// line numbers is blank.
func (c *classifier) blankBetween(from, to int) bool {
	for i := from; i < to-1; i++ {
		if strings.TrimSpace(c.doc.Lines[i]) != "" {
			return false
		}
	}
	return true
}

func (c *classifier) openRegion(span *RawBlockSpan) {
	if c.region != nil {
		c.warn.warnf(span.Line, "nested only-region %q inside %q ignored", span.Arg, c.regionName)
		return
	}
	c.regionName = span.Arg
	c.region = c.opts.regionTargets(span.Arg)
}

func (c *classifier) closeRegion(span *RawBlockSpan) {
	if c.region == nil {
		c.warn.warnf(span.Line, "endonly without a matching only-region")
		return
	}
	c.region = nil
	c.regionName = ""
}

// looksLikeShell reports whether the first non-blank body line carries a
// recognized prompt decoration.
func looksLikeShell(body []string) bool {
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, p := range shellPrompts {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
		return false
	}
	return false
}
