package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tmakino/ledgerlens/internal/llm"
	"github.com/tmakino/ledgerlens/internal/models"
	"github.com/tmakino/ledgerlens/pkg/utils"
)

const clarifyMessage = "Do you want a summary of the whole PDF, or a specific section/pages? " +
	"Also, should it be short (5 bullets) or detailed (1-2 paragraphs)?"

const maxErrorLen = 300

// Router answers chat questions. The oracle may be nil, in which case every
// answer is extractive.
type Router struct {
	oracle llm.Oracle
	log    *zap.Logger
}

// New creates a router delegating to the given oracle, nil for none.
func New(oracle llm.Oracle, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{oracle: oracle, log: log}
}

// Answer routes the question and returns the answer plus whether the oracle
// produced it. Routing happens on the normalized question, in order:
// underspecified summary requests get a clarifying question, questions about
// financial concepts are answered from the retrieved context, everything else
// is delegated to the oracle with an extractive fallback.
func (r *Router) Answer(ctx context.Context, question string, retrieved []models.RetrievedPassage) (string, bool) {
	q := NormalizeQuestion(question)
	contextPassages := make([]string, len(retrieved))
	for i, p := range retrieved {
		contextPassages[i] = p.Text
	}

	if summaryUnderspecified(q) {
		return clarifyMessage, false
	}

	if looksLikeConceptsQuestion(q) {
		if concepts := extractConcepts(contextPassages); len(concepts) > 0 {
			if len(concepts) > 10 {
				concepts = concepts[:10]
			}
			return "Yes, I see financial-related content in the retrieved parts of the PDF. " +
				"Examples of financial concepts/terms mentioned: " + strings.Join(concepts, ", ") + ". " +
				"If you want, tell me whether you mean accounting terms, financial statements, or finance theory, and I'll narrow it down.", false
		}
	}

	if q == "" {
		q = question
	}
	prompt := BuildPrompt(q, contextPassages)

	var oracleErr error
	if r.oracle != nil {
		answer, err := r.oracle.Generate(ctx, prompt)
		if err == nil && answer != "" {
			return answer, true
		}
		oracleErr = err
		r.log.Warn("oracle failed, answering extractively",
			zap.String("provider", r.oracle.Name()),
			zap.Error(err))
	}

	return r.extractiveFallback(retrieved, oracleErr), false
}

// extractiveFallback builds the answer shown when no oracle answer is
// available: a provider-aware notice followed by the top retrieved passages.
func (r *Router) extractiveFallback(retrieved []models.RetrievedPassage, oracleErr error) string {
	if len(retrieved) == 0 {
		return "I couldn't find anything relevant in the PDF."
	}

	top := retrieved
	if len(top) > 3 {
		top = top[:3]
	}
	texts := make([]string, len(top))
	for i, p := range top {
		texts[i] = p.Text
	}
	passages := strings.Join(texts, "\n\n")

	if r.oracle == nil {
		return "No LLM provider is configured. Set llm.provider to gemini, openai, or ollama. " +
			"For now, here are the most relevant passages:\n\n" + passages
	}

	msg := fmt.Sprintf("%s did not return an answer. Check your llm settings.", r.oracle.Name())
	if oracleErr != nil {
		msg += "\n\nError: " + utils.Truncate(oracleErr.Error(), maxErrorLen)
	}
	return msg + "\n\nRelevant passages:\n\n" + passages
}
