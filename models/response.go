package models

// ErrorResponse is the body of every non-200 API response.
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Evaluator string `json:"evaluator"`
	Version   string `json:"version"`
}
