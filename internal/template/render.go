// Package template renders {{VAR}} placeholder templates. Rendering is
// strict: an unknown variable, an empty expression, or an unclosed delimiter
// is an error rather than a silent empty substitution.
package template

import (
	"fmt"
	"strings"
)

// Error reports a failure to render a template. Path identifies the template
// file when the text came from disk.
type Error struct {
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("error rendering template %s - %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("error rendering template - %s", e.Msg)
}

// Render substitutes {{VAR}} placeholders in input with values from vars.
func Render(input string, vars map[string]string) (string, error) {
	var out strings.Builder
	rest := input
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.Index(rest, "}}")
		if end == -1 {
			return "", &Error{Msg: "unclosed template expression"}
		}
		key := strings.TrimSpace(rest[:end])
		if key == "" {
			return "", &Error{Msg: "empty template expression"}
		}
		value, ok := vars[key]
		if !ok {
			return "", &Error{Msg: fmt.Sprintf("undefined variable %q", key)}
		}
		out.WriteString(value)
		rest = rest[end+2:]
	}
}
