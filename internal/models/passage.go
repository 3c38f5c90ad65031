// Package models defines core data structures for passages, documents, and finance queries.
package models

// PageText is the extracted text of a single document page. Pages are 1-based.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Passage is a text fragment tagged with its originating page number.
// Text carries the "[page N] " prefix so the tag survives prompt assembly.
type Passage struct {
	ID   string `json:"id"`
	Page int    `json:"page"`
	Text string `json:"text"`
}

// RetrievedPassage is a passage paired with its retrieval similarity score.
// For normalized vectors the score is the inner product, in [-1, 1].
type RetrievedPassage struct {
	Passage `json:"passage"`
	Score   float64 `json:"score"`
}

// ChatTurn is a single turn of the session chat history.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
