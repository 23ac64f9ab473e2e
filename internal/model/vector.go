package model

// RetrievedChunk is one vector-store hit. Score is nil for non-similarity
// fetch paths.
type RetrievedChunk struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Score    *float64               `json:"score,omitempty"`
}
