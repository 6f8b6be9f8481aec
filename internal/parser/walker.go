package parser

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options is the resolved configuration the extraction core runs with. The
// caller (CLI, watch loop, tests) builds it; the core never reads config
// files itself.
type Options struct {
	Root             string            // Documentation source root
	RootDocument     string            // Navigation root, e.g. "index.rst"
	AcceptedTags     []string          // Language tags treated as executable
	DefaultTarget    string            // Target for blocks with no annotation
	DistroTargets    map[string]string // only-region distro name -> target
	TargetMarker     string            // Marker keyword that routes a block, default "script"
	SkipMarker       string            // Marker keyword that excludes a block, default "no-run"
	Strict           bool              // Unterminated blocks become fatal
	SudoRootCommands bool              // Prefix "#"-prompted commands with sudo
}

func (o Options) targetMarker() string {
	if o.TargetMarker == "" {
		return "script"
	}
	return o.TargetMarker
}

func (o Options) skipMarker() string {
	if o.SkipMarker == "" {
		return "no-run"
	}
	return o.SkipMarker
}

func (o Options) accepted(lang string) bool {
	for _, t := range o.AcceptedTags {
		if strings.EqualFold(t, lang) {
			return true
		}
	}
	return false
}

// regionTargets resolves an only-region argument ("ubuntu or debian") to
// target names through the distro mapping. An unmapped name is its own
// target.
func (o Options) regionTargets(arg string) []string {
	var targets []string
	for _, name := range strings.Split(arg, " or ") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if t, ok := o.DistroTargets[name]; ok {
			name = t
		}
		targets = append(targets, name)
	}
	if len(targets) == 0 {
		targets = []string{o.DefaultTarget}
	}
	return targets
}

// Result is the outcome of walking one documentation tree.
type Result struct {
	Blocks    []*CodeBlock // All accepted blocks, in ordinal order
	Warnings  []Warning    // Aggregated, in traversal order
	Documents []string     // Relative paths in traversal order
}

// Skipped counts the blocks excluded by a no-run marker.
func (r *Result) Skipped() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Skip {
			n++
		}
	}
	return n
}

// Walk enumerates the documents under opts.Root in deterministic traversal
// order, classifies each one, and assigns global ordinals. Documents are
// parsed concurrently; ordinals are handed out in a single serial pass over
// the merged results, so two runs on unchanged input are identical.
func Walk(ctx context.Context, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	paths, err := discover(opts, log)
	if err != nil {
		return nil, err
	}

	type docResult struct {
		blocks   []*CodeBlock
		warnings []Warning
	}
	results := make([]docResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Debug("processing document", zap.String("doc", rel))
			doc, err := readDocument(filepath.Join(opts.Root, rel), rel)
			if err != nil {
				return err
			}
			blocks, warnings, err := classifyDocument(doc, i, opts)
			if err != nil {
				return err
			}
			results[i] = docResult{blocks: blocks, warnings: warnings}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Documents: paths}
	ordinal := 0
	for _, dr := range results {
		for _, b := range dr.blocks {
			b.Ordinal = ordinal
			ordinal++
			res.Blocks = append(res.Blocks, b)
		}
		res.Warnings = append(res.Warnings, dr.warnings...)
	}
	log.Debug("walk finished",
		zap.Int("documents", len(paths)),
		zap.Int("blocks", len(res.Blocks)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// readDocument slurps one source file.
func readDocument(path, rel string) (*SourceDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return &SourceDocument{Path: path, RelPath: rel, Lines: lines}, nil
}

// discover lists the .rst files under the root in traversal order: toctree
// reading order from the root document when one exists, then any files the
// toctree never reaches in lexical order.
func discover(opts Options, log *zap.Logger) ([]string, error) {
	info, err := os.Stat(opts.Root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableRoot, opts.Root)
	}

	var all []string
	err = filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".rst") {
			rel, err := filepath.Rel(opts.Root, path)
			if err != nil {
				return err
			}
			all = append(all, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, opts.Root, err)
	}

	visited := make(map[string]bool)
	var ordered []string
	var follow func(rel string)
	follow = func(rel string) {
		if visited[rel] {
			return
		}
		visited[rel] = true
		ordered = append(ordered, rel)

		doc, err := readDocument(filepath.Join(opts.Root, rel), rel)
		if err != nil {
			return // unreadable here surfaces later, during the parse pass
		}
		sc := NewScanner(doc)
		for span := sc.Next(); span != nil; span = sc.Next() {
			if span.Name != "toctree" {
				continue
			}
			for _, entry := range toctreeEntries(span.Body) {
				next := filepath.Join(filepath.Dir(rel), entry)
				if !strings.HasSuffix(next, ".rst") {
					next += ".rst"
				}
				if _, err := os.Stat(filepath.Join(opts.Root, next)); err != nil {
					log.Warn("toctree entry does not exist", zap.String("doc", rel), zap.String("entry", entry))
					continue
				}
				follow(next)
			}
		}
	}

	if opts.RootDocument != "" {
		if _, err := os.Stat(filepath.Join(opts.Root, opts.RootDocument)); err == nil {
			follow(opts.RootDocument)
		}
	}
	// WalkDir visits lexically, so the fallback order is already stable.
	for _, rel := range all {
		if !visited[rel] {
			ordered = append(ordered, rel)
		}
	}
	return ordered, nil
}

// toctreeEntries extracts document references from a toctree body, skipping
// option lines and handling the "Title <doc>" form.
func toctreeEntries(body []string) []string {
	var entries []string
	for _, line := range body {
		entry := strings.TrimSpace(line)
		if entry == "" || strings.HasPrefix(entry, ":") {
			continue
		}
		if i := strings.LastIndex(entry, "<"); i >= 0 && strings.HasSuffix(entry, ">") {
			entry = strings.TrimSpace(entry[i+1 : len(entry)-1])
		}
		entries = append(entries, entry)
	}
	return entries
}
