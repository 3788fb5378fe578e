package types

// SuccessEnvelope wraps all successful API responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps all failed API responses.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
