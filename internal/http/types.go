package http

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is the envelope for requests that never reached the
// analyzer (bad input, rate limiting). Analysis failures are reported as
// a Result with an error field instead.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
	Rod    string `json:"rod,omitempty"`
	LLM    string `json:"llm,omitempty"`
}
