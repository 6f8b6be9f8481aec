package parser

import (
	"regexp"
	"strings"
)

var promptRe = regexp.MustCompile(`^(mysql> |\$ |# |> )(.*)$`)

// NormalizedCommand is the executable form of one code block: prompt
// decorations stripped, continuations merged, output lines removed.
type NormalizedCommand struct {
	Block *CodeBlock
	Lines []string
}

// Empty reports whether normalization left no lines at all.
func (n NormalizedCommand) Empty() bool {
	return len(n.Lines) == 0
}

// Normalize derives the command lines from a block's raw body.
//
// A block that contains at least one prompted line is treated as a console
// transcript: prompts are stripped, a line continuing with a trailing
// backslash swallows its follow-on lines, and unprompted non-blank lines are
// command output and dropped. A block with no prompts at all was authored as
// plain script text and passes through unchanged apart from continuation
// merging. Comment lines survive verbatim in both modes.
//
// With sudoRoot set, commands behind the privileged "#" prompt are prefixed
// with sudo, the way the original training-lab scripts ran them.
func Normalize(block *CodeBlock, sudoRoot bool) NormalizedCommand {
	lines := dedent(block.Body)
	prompted := false
	for _, line := range lines {
		if promptRe.MatchString(line) {
			prompted = true
			break
		}
	}

	var out []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}

		if prompted {
			m := promptRe.FindStringSubmatch(line)
			if m == nil {
				if strings.HasPrefix(line, "#") {
					out = append(out, line) // comment, kept as documentation
				}
				continue // command output
			}
			cmd := m[2]
			if sudoRoot && m[1] == "# " {
				cmd = "sudo " + cmd
			}
			cmd, i = mergeContinuations(cmd, lines, i)
			out = append(out, cmd)
			continue
		}

		if strings.HasPrefix(line, "#") {
			out = append(out, line)
			continue
		}
		var cmd string
		cmd, i = mergeContinuations(line, lines, i)
		out = append(out, cmd)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return NormalizedCommand{Block: block, Lines: out}
}

// mergeContinuations joins cmd with the lines it continues onto. The
// backslash and the line break are dropped and a single space keeps the
// tokens apart, so the joined line is the same command the shell would have
// assembled from the multi-line form.
func mergeContinuations(cmd string, lines []string, i int) (string, int) {
	for continues(cmd) && i+1 < len(lines) {
		i++
		next := strings.TrimSpace(lines[i])
		cmd = strings.TrimRight(cmd[:len(cmd)-1], " \t") + " " + next
	}
	return cmd, i
}

// continues reports whether a line ends in an unescaped backslash.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// dedent strips the common leading whitespace of the non-blank lines, so
// directive body indentation does not leak into the generated script.
func dedent(lines []string) []string {
	margin := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		w := len(line) - len(strings.TrimLeft(line, " \t"))
		if margin < 0 || w < margin {
			margin = w
		}
	}
	if margin <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) >= margin {
			out[i] = line[margin:]
		}
	}
	return out
}
