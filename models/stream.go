package models

// StreamMeta is the first frame of a streaming response, emitted as a single
// JSON line before any token bytes.
type StreamMeta struct {
	Type    string         `json:"type"`
	Sources []StreamSource `json:"sources"`
}

// StreamSource is a compact source descriptor. Excerpts are deliberately
// omitted from the stream meta frame.
type StreamSource struct {
	DocID    string  `json:"doc_id"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// StreamError is the trailing frame written when generation fails mid-stream.
type StreamError struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
}
