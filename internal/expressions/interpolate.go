package expressions

import (
	"strings"

	"github.com/flowkit-io/flowkit/pkg/schema"
)

// Interpolate replaces every ${name} placeholder in text with the value the
// scope resolves for name. The scan is a single pass: resolved values are
// never re-scanned, so substitution cannot recurse. A "$" not followed by
// "{" passes through untouched. Malformed placeholders (unclosed "${",
// empty or non-identifier names) return a TEMPLATE_ERROR.
func Interpolate(text string, scope Scope) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(text) {
		idx := strings.Index(text[i:], "${")
		if idx == -1 {
			out.WriteString(text[i:])
			break
		}
		out.WriteString(text[i : i+idx])
		start := i + idx + 2

		end := strings.IndexByte(text[start:], '}')
		if end == -1 {
			return "", schema.NewErrorf(schema.ErrCodeTemplate,
				"unclosed ${ placeholder at position %d", i+idx)
		}
		end += start

		name := text[start:end]
		if !isIdentifier(name) {
			return "", schema.NewErrorf(schema.ErrCodeTemplate,
				"invalid placeholder %q: name must be an identifier", text[i+idx:end+1])
		}

		out.WriteString(scope.Lookup(name))
		i = end + 1
	}
	return out.String(), nil
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
