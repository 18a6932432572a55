package models

// ChatPostRequest is the inbound chat body. TopK and Threshold are pointers
// so that absent fields can be told apart from explicit zeroes and given
// defaults.
type ChatPostRequest struct {
	Message   string         `json:"message"`
	TopK      *int           `json:"top_k"`
	Threshold *float64       `json:"threshold"`
	Filters   map[string]any `json:"filters"`
}

type ChatPostResponse struct {
	OK      bool           `json:"ok"`
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
	Tokens  *TokenUsage    `json:"tokens"`
}

// TokenUsage is best-effort: the upstream API does not always report it.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// ChatErrorResponse is the body of a failed chat request.
type ChatErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ErrorResponse is the body of auth and routing failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
