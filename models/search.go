package models

// SearchRequest is the body sent to the vector store's search endpoint.
type SearchRequest struct {
	Query       string         `json:"query"`
	TopK        int            `json:"top_k"`
	Threshold   float64        `json:"threshold"`
	IncludeText bool           `json:"include_text"`
	Filters     map[string]any `json:"filters"`
}

type SearchResponse struct {
	OK      bool           `json:"ok"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// SearchResult is a ranked context snippet returned by the vector store.
// It is read-only to this service and lives for one request.
type SearchResult struct {
	DocID    string   `json:"doc_id"`
	Filename string   `json:"filename"`
	Score    float64  `json:"score"`
	Excerpt  string   `json:"excerpt"`
	Tags     []string `json:"tags"`
}
