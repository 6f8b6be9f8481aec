package script

import (
	"sort"
	"strings"

	"github.com/openstack-archive/rst2bash/internal/parser"
)

// Target is one output script being accumulated: the ordered commands of
// every accepted, non-skipped block assigned to it.
type Target struct {
	Name     string
	Commands []parser.NormalizedCommand
}

// Blocks returns the number of blocks contributing to the target.
func (t *Target) Blocks() int {
	return len(t.Commands)
}

// Assembler groups normalized blocks into targets and renders the final
// script text. Targets are created on first encounter and only ever grow;
// blocks arrive in ordinal order, so each target's command list is already
// in reading order.
type Assembler struct {
	opts    parser.Options
	context map[string]string
	targets map[string]*Target
}

// NewAssembler returns an empty assembler. The template context is shared
// read-only state supplied by configuration.
func NewAssembler(opts parser.Options, context map[string]string) *Assembler {
	return &Assembler{
		opts:    opts,
		context: context,
		targets: make(map[string]*Target),
	}
}

// Consume normalizes and files every block of a walk result. Skipped blocks
// are counted by the caller via the result; they never reach a target.
// Blocks left with nothing executable contribute nothing and are reported
// as warnings.
func (a *Assembler) Consume(blocks []*parser.CodeBlock) []parser.Warning {
	var warnings []parser.Warning
	for _, block := range blocks {
		if block.Skip {
			continue
		}
		cmd := parser.Normalize(block, a.opts.SudoRootCommands)
		if cmd.Empty() {
			warnings = append(warnings, parser.Warning{
				Doc:     block.Doc.RelPath,
				Line:    block.Line,
				Message: "block is empty after normalization",
			})
			continue
		}
		for _, name := range block.Targets {
			target, ok := a.targets[name]
			if !ok {
				target = &Target{Name: name}
				a.targets[name] = target
			}
			target.Commands = append(target.Commands, cmd)
		}
	}
	return warnings
}

// Targets returns the accumulated targets sorted by name.
func (a *Assembler) Targets() []*Target {
	names := make([]string, 0, len(a.targets))
	for name := range a.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Target, len(names))
	for i, name := range names {
		out[i] = a.targets[name]
	}
	return out
}

// Render produces the final script text for every target, keyed by the
// script file name. Any unresolved placeholder aborts rendering with a
// ConfigurationError before anything can be written.
func (a *Assembler) Render() (map[string]string, error) {
	scripts := make(map[string]string, len(a.targets))
	for _, target := range a.Targets() {
		text, err := a.renderTarget(target)
		if err != nil {
			return nil, err
		}
		scripts[target.Name+".sh"] = text
	}
	return scripts, nil
}

func (a *Assembler) renderTarget(target *Target) (string, error) {
	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("\n")
	b.WriteString("set -eu\n")

	lastDoc := ""
	for _, cmd := range target.Commands {
		b.WriteString("\n")
		if doc := cmd.Block.Doc.RelPath; doc != lastDoc {
			b.WriteString("# --- " + doc + " ---\n")
			lastDoc = doc
		}
		if cmd.Block.PathHint != "" {
			b.WriteString("# path: " + cmd.Block.PathHint + "\n")
		}
		for _, line := range cmd.Lines {
			resolved, missing := substitute(line, a.context)
			if missing != "" {
				return "", &ConfigurationError{
					Placeholder: missing,
					Target:      target.Name,
					Doc:         cmd.Block.Doc.RelPath,
					Line:        cmd.Block.Line,
				}
			}
			b.WriteString(resolved + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(`echo "` + target.Name + `: deployment steps complete."` + "\n")
	return b.String(), nil
}
