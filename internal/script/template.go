package script

import (
	"fmt"
	"regexp"
)

// Placeholders use mustache-style delimiters rather than the shell's own
// "$name" form, so substitution can never collide with a real shell variable
// in an extracted command.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// ConfigurationError reports a placeholder with no value in the template
// context. It aborts the run: a partially substituted script is worse than
// no script.
type ConfigurationError struct {
	Placeholder string
	Target      string
	Doc         string
	Line        int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s:%d: unresolved template placeholder {{ %s }} in target %q",
		e.Doc, e.Line, e.Placeholder, e.Target)
}

// substitute resolves every placeholder in line against the template
// context. The second return is the first unresolved name, empty when the
// line resolved completely.
func substitute(line string, context map[string]string) (string, string) {
	var missing string
	out := placeholderRe.ReplaceAllStringFunc(line, func(token string) string {
		name := placeholderRe.FindStringSubmatch(token)[1]
		value, ok := context[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return token
		}
		return value
	})
	return out, missing
}
