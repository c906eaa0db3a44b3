package domain

// IdeaOrigin identifies where a candidate expression came from.
type IdeaOrigin string

const (
	OriginTemplate IdeaOrigin = "TEMPLATE"
	OriginLLM      IdeaOrigin = "LLM"
	OriginFile     IdeaOrigin = "FILE"
	OriginReversal IdeaOrigin = "REVERSAL"
)

// IdeaCandidate is a candidate alpha expression waiting to be tested.
type IdeaCandidate struct {
	CandidateID string     // short fingerprint-derived ID
	Expression  string     // expression in the backend's language
	Hypothesis  string     // free-text rationale, may be empty
	Origin      IdeaOrigin // where the candidate came from
	ParentID    string     // candidate this one was derived from, empty for roots
	CreatedAt   int64      // Unix timestamp in milliseconds
}
