package domain

// MinedAlpha is an accepted or hopeful expression together with the
// result that earned it a place on the list.
type MinedAlpha struct {
	Fingerprint string      `json:"fingerprint"`
	Expression  string      `json:"expression"`
	Hypothesis  string      `json:"hypothesis,omitempty"`
	Decision    string      `json:"decision"` // ACCEPT or HOPEFUL
	Result      AlphaResult `json:"result"`
	Iteration   int         `json:"iteration"` // loop iteration that produced it
	FoundAt     int64       `json:"found_at"`  // Unix seconds
}
