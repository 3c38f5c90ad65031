// Package router decides how a chat question is answered: by asking a
// clarifying question, by answering directly from retrieved context, or by
// delegating to the configured answer oracle with an extractive fallback.
package router

import "strings"

// commonCorrections maps frequent misspellings to their intended word.
// Corrections are conservative and word-level so user meaning is kept while
// retrieval improves.
var commonCorrections = map[string]string{
	"wther":      "whether",
	"wether":     "whether",
	"finacial":   "financial",
	"finanicial": "financial",
	"summery":    "summary",
	"sumarize":   "summarize",
	"summarise":  "summarize",
}

// NormalizeQuestion collapses whitespace and applies word-level spelling
// corrections. A blank question normalizes to "".
func NormalizeQuestion(question string) string {
	q := strings.Join(strings.Fields(question), " ")
	if q == "" {
		return ""
	}
	tokens := strings.Split(q, " ")
	for i, t := range tokens {
		if fixed, ok := commonCorrections[strings.ToLower(t)]; ok {
			tokens[i] = fixed
		}
	}
	return strings.Join(tokens, " ")
}
