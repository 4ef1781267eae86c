package model

// RetrievedPassage is one indexed passage returned by retrieval.
type RetrievedPassage struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}
