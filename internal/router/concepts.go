package router

import (
	"regexp"
	"strings"
)

// moneyPattern matches currency-symbol amounts and comma-grouped numbers.
var moneyPattern = regexp.MustCompile(`(?:[$€£]\s*\d|\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b)`)

// financeTerms is the vocabulary scanned for when the user asks about
// financial concepts. Order fixes the order of the reported terms.
var financeTerms = []string{
	"revenue",
	"income",
	"expense",
	"expenses",
	"cost",
	"costs",
	"profit",
	"loss",
	"balance",
	"debit",
	"credit",
	"interest",
	"tax",
	"invoice",
	"payment",
	"transaction",
	"cash flow",
	"budget",
	"assets",
	"liabilities",
	"equity",
	"fee",
	"charge",
	"refund",
	"amount",
	"total",
	"subtotal",
	"account",
	"statement",
}

func wantsSummary(q string) bool {
	ql := strings.ToLower(q)
	for _, k := range []string{"summarize", "summary", "summarise"} {
		if strings.Contains(ql, k) {
			return true
		}
	}
	return false
}

// summaryUnderspecified reports whether the user asked for a summary without
// giving any scope.
func summaryUnderspecified(q string) bool {
	if !wantsSummary(q) {
		return false
	}
	ql := strings.ToLower(q)
	for _, m := range []string{"page", "pages", "section", "chapter", "table", "about", "focus on", "only"} {
		if strings.Contains(ql, m) {
			return false
		}
	}
	return true
}

// looksLikeConceptsQuestion reports whether the question asks about financial
// concepts in the document.
func looksLikeConceptsQuestion(q string) bool {
	ql := strings.ToLower(q)
	if strings.Contains(ql, "financial concept") || strings.Contains(ql, "financial concepts") {
		return true
	}
	if !strings.Contains(ql, "financial") {
		return false
	}
	for _, w := range []string{"concept", "concepts", "terms", "topics"} {
		if strings.Contains(ql, w) {
			return true
		}
	}
	return false
}

// extractConcepts scans the retrieved context for known finance terms, in
// vocabulary order, plus "currency amounts" when money-like strings appear.
func extractConcepts(contextPassages []string) []string {
	joined := strings.Join(contextPassages, "\n")
	jl := strings.ToLower(joined)

	var found []string
	for _, term := range financeTerms {
		if strings.Contains(jl, term) {
			found = append(found, term)
		}
	}
	if moneyPattern.MatchString(joined) {
		found = append(found, "currency amounts")
	}

	var out []string
	seen := make(map[string]struct{})
	for _, x := range found {
		if _, ok := seen[x]; ok {
			continue
		}
		out = append(out, x)
		seen[x] = struct{}{}
	}
	return out
}

// BuildPrompt assembles the oracle prompt from the question and retrieved
// context passages.
func BuildPrompt(question string, contextPassages []string) string {
	context := strings.Join(contextPassages, "\n\n")
	return "You are a helpful PDF RAG assistant.\n" +
		"- Use the provided context to answer questions about the PDF.\n" +
		"- You MAY use general knowledge for definitions or explanations, but do NOT invent facts that are not supported by the context.\n" +
		"- When you cite something from the PDF, prefer quoting short phrases and keep the [page N] tags if present.\n" +
		"- Only ask clarifying questions when the user request is genuinely underspecified.\n" +
		"\n" +
		"Context:\n" + context + "\n\n" +
		"User question: " + question + "\n" +
		"Answer:"
}
