package models

// ErrorBody is the error object inside an ErrorResponse.
type ErrorBody struct {
	Code    string `json:"code" example:"NOT_FOUND"`
	Message string `json:"message" example:"user with userId 1 was not found"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool      `json:"success" example:"false"`
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id" example:"3f1e0b7c-54a4-4a57-9d07-0f6d1f0b9b55"`
	Timestamp string    `json:"timestamp" example:"2024-03-15T14:30:00Z"`
}
