package validate

import (
	"strings"

	"github.com/gitbasheer/radmonitor-sub001/types"
)

// forbiddenPatterns are raw substrings that must never appear in a
// formula, whatever the parser makes of them. They target constructs
// that could be meaningful to a downstream interpreter if the compiled
// output were ever evaluated outside its intended sandbox. Matching is
// case-insensitive.
var forbiddenPatterns = []string{
	"${",
	"#{",
	"<script",
	"javascript:",
	"eval(",
	"exec(",
	"system.",
	"runtime.",
	"processbuilder",
	"__proto__",
	"constructor(",
	"import(",
	"`",
	";",
}

// forbiddenMessage deliberately does not echo the matched pattern, so
// the filter does not teach an adversary which substring tripped it.
const forbiddenMessage = "formula contains a forbidden pattern"

// CheckSource scans the raw formula text against the denylist and for
// control characters. It runs before, and independently of, any
// parsing: an input that does not even lex can still be rejected here.
// Returns nil when the text is clean.
func CheckSource(text string) *types.Diagnostic {
	lower := strings.ToLower(text)
	for _, pattern := range forbiddenPatterns {
		if idx := strings.Index(lower, pattern); idx >= 0 {
			return forbiddenAt(text, idx)
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch < 0x20 && ch != '\t' && ch != '\n' && ch != '\r' {
			return forbiddenAt(text, i)
		}
	}

	return nil
}

func forbiddenAt(text string, offset int) *types.Diagnostic {
	line, column := 1, 1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return &types.Diagnostic{
		Code:     CodeForbiddenPattern,
		Message:  forbiddenMessage,
		Position: &types.Position{Line: line, Column: column},
		Severity: types.SeverityError,
	}
}
